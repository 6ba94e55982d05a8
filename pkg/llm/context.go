package llm

import "context"

// Purpose 标记一次模型调用属于哪个功能，只用于日志。
type Purpose string

const (
	PurposePracticeGrading Purpose = "practice_grading"
	PurposeFreeMode        Purpose = "free_mode"
	PurposeAskingMode      Purpose = "asking_mode"
	purposeUnlabeled       Purpose = "unlabeled"
)

type purposeKey struct{}

func WithPurpose(ctx context.Context, purpose Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom 取出调用用途，未标记时返回 "unlabeled"。
func PurposeFrom(ctx context.Context) Purpose {
	if v, ok := ctx.Value(purposeKey{}).(Purpose); ok {
		return v
	}
	return purposeUnlabeled
}
