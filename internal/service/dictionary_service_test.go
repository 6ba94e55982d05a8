package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionaryService_AddIsIdempotent(t *testing.T) {
	f := newFixture(t, testIdioms...)
	ctx := context.Background()

	added, err := f.dictionary.Add(ctx, "u1", "山清水秀")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = f.dictionary.Add(ctx, "u1", " 山清水秀 ")
	require.NoError(t, err)
	assert.False(t, added)

	items, err := f.dictionary.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []DictionaryItem{{Idiom: "山清水秀", Translation: "Живописный пейзаж"}}, items)
}

func TestDictionaryService_AddValidation(t *testing.T) {
	f := newFixture(t, testIdioms...)
	ctx := context.Background()

	_, err := f.dictionary.Add(ctx, "u1", "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.dictionary.Add(ctx, "u1", "不存在的")
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := f.dictionary.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDictionaryService_RemoveNonMember(t *testing.T) {
	f := newFixture(t, testIdioms...)
	ctx := context.Background()

	_, err := f.dictionary.Add(ctx, "u1", "学而不厌")
	require.NoError(t, err)

	err = f.dictionary.Remove(ctx, "u1", "山清水秀")
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := f.dictionary.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "学而不厌", items[0].Idiom)

	require.NoError(t, f.dictionary.Remove(ctx, "u1", "学而不厌"))
	_, _, err = f.dictionary.Random(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDictionaryService_ListKeepsInsertionOrder(t *testing.T) {
	f := newFixture(t, testIdioms...)
	ctx := context.Background()

	for _, idiom := range []string{"学而不厌", "山清水秀"} {
		_, err := f.dictionary.Add(ctx, "u1", idiom)
		require.NoError(t, err)
	}
	items, err := f.dictionary.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "学而不厌", items[0].Idiom)
	assert.Equal(t, "山清水秀", items[1].Idiom)

	idiom, details, err := f.dictionary.Random(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, idiom, details.Text)
}

func TestParseDailyTime(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"09:00", "09:00", false},
		{" 23:59 ", "23:59", false},
		{"9:05", "09:05", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDailyTime(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserService_SetDailyTimeUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.SetDailyTime(context.Background(), "ghost", "10:00")
	assert.ErrorIs(t, err, ErrNotFound)

	f.createUser(t, "u1", "09:00")
	got, err := f.users.SetDailyTime(context.Background(), "u1", "7:30")
	require.NoError(t, err)
	assert.Equal(t, "07:30", got)
}
