package domain

import "testing"

func TestMentionContext_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ctx  MentionContext
		want bool
	}{
		{MentionContextComment, true},
		{MentionContextJudgeNote, true},
		{MentionContext("story"), false},
		{MentionContext(""), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.ctx), func(t *testing.T) {
			t.Parallel()
			if got := tt.ctx.IsValid(); got != tt.want {
				t.Errorf("MentionContext(%q).IsValid() = %v, want %v", tt.ctx, got, tt.want)
			}
		})
	}
}

func TestEmailType_IsCritical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  EmailType
		want bool
	}{
		{EmailTypeAdminReportNotif, true},
		{EmailTypeUserReportNotif, true},
		{EmailTypeWelcome, false},
		{EmailTypeWeeklyDigest, false},
		{EmailTypeMention, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			if got := tt.typ.IsCritical(); got != tt.want {
				t.Errorf("EmailType(%q).IsCritical() = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestEmailStatus_IsProviderTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status EmailStatus
		want   bool
	}{
		{EmailStatusDelivered, true},
		{EmailStatusBounced, true},
		{EmailStatusComplained, true},
		{EmailStatusSent, false},
		{EmailStatusFailed, false},
		{EmailStatus("queued"), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := tt.status.IsProviderTerminal(); got != tt.want {
				t.Errorf("EmailStatus(%q).IsProviderTerminal() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTokenPurpose_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		purpose TokenPurpose
		want    bool
	}{
		{TokenPurposeAllEmail, true},
		{TokenPurposeWeeklyDigest, true},
		{TokenPurposeMentions, true},
		{TokenPurpose("spam"), false},
		{TokenPurpose(""), false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.purpose), func(t *testing.T) {
			t.Parallel()
			if got := tt.purpose.IsValid(); got != tt.want {
				t.Errorf("TokenPurpose(%q).IsValid() = %v, want %v", tt.purpose, got, tt.want)
			}
		})
	}
}
