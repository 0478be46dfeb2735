package status

import "testing"

func TestResolveUnknownStatusFallsBack(t *testing.T) {
	info := Resolve("Totally Made Up", nil, "")

	if info.Category != "unknown" {
		t.Errorf("Expected category unknown, got %s", info.Category)
	}
	if info.CustomerStatus != "Totally Made Up" {
		t.Errorf("Expected raw status as label, got %s", info.CustomerStatus)
	}
	if info.Message != "Status: Totally Made Up" {
		t.Errorf("Unexpected fallback message: %s", info.Message)
	}
	if info.Progress != 0 || info.ActionRequired {
		t.Errorf("Fallback should have zero progress and no action, got %+v", info)
	}
}

func TestResolveInProgressFormula(t *testing.T) {
	cases := []struct {
		testProgress int
		want         int
	}{
		{0, 40},
		{50, 60},
		{75, 70},
		{100, 80},
	}

	for _, tc := range cases {
		info := Resolve(InProgress, &tc.testProgress, "")
		if info.Progress != tc.want {
			t.Errorf("Resolve(In Progress, %d): progress = %d, want %d", tc.testProgress, info.Progress, tc.want)
		}
	}
}

func TestResolveInProgressWithoutProgressKeepsPlaceholder(t *testing.T) {
	info := Resolve(InProgress, nil, "")

	// 未提供进度时公式不生效，占位符原样保留
	if info.Progress != 0 {
		t.Errorf("Expected progress 0 without test progress, got %d", info.Progress)
	}
	if info.Message != "Calibration tests are {progress}% complete." {
		t.Errorf("Placeholder should stay verbatim, got %q", info.Message)
	}
}

func TestResolveMessageSubstitution(t *testing.T) {
	p := 42
	info := Resolve(InProgress, &p, "")
	if info.Message != "Calibration tests are 42% complete." {
		t.Errorf("Unexpected message: %q", info.Message)
	}

	info = Resolve(RejectedByLab, nil, "sample damaged in transit")
	if info.Message != "Lab cannot accept this request. Reason: sample damaged in transit" {
		t.Errorf("Unexpected message: %q", info.Message)
	}

	// reason 未提供时占位符保留
	info = Resolve(RejectedByLab, nil, "")
	if info.Message != "Lab cannot accept this request. Reason: {reason}" {
		t.Errorf("Placeholder should stay verbatim, got %q", info.Message)
	}
}

func TestResolveQuoteSentRequiresAction(t *testing.T) {
	info := Resolve(QuoteSent, nil, "")

	if info.Message != "Lab has sent a quote. Please review and approve to proceed." {
		t.Errorf("Unexpected message: %q", info.Message)
	}
	if !info.ActionRequired || info.ActionType != "approve_quote" {
		t.Errorf("Quote Sent should require approve_quote action, got %+v", info)
	}
}

func TestResolveOnHoldKeepsProgress(t *testing.T) {
	info := Resolve(OnHold, nil, "payment outstanding")

	if !info.KeepProgress {
		t.Error("On Hold should signal the caller to keep prior progress")
	}
	if info.Progress != 0 {
		t.Errorf("Hold progress should resolve to 0, got %d", info.Progress)
	}
}

func TestTimelineStates(t *testing.T) {
	timeline := Timeline(Scheduled)

	if len(timeline) != 12 {
		t.Fatalf("Expected 12 milestones, got %d", len(timeline))
	}

	seen := map[string]string{}
	for _, m := range timeline {
		seen[m.Name] = m.Status
	}

	if seen[Submitted] != "completed" || seen[QuoteApproved] != "completed" {
		t.Errorf("Milestones before current should be completed: %v", seen)
	}
	if seen[Scheduled] != "current" {
		t.Errorf("Scheduled should be current, got %s", seen[Scheduled])
	}
	if seen[SampleReceived] != "pending" || seen[Completed] != "pending" {
		t.Errorf("Milestones after current should be pending: %v", seen)
	}

	// 终止类状态不出现在时间轴里
	for _, m := range timeline {
		if m.Name == Cancelled || m.Name == RejectedByLab || m.Name == OnHold {
			t.Errorf("Stopped status %s must not appear in timeline", m.Name)
		}
	}
}

func TestDetailedFromHighLevel(t *testing.T) {
	cases := map[string]string{
		"Pending":     Submitted,
		"In Progress": TestingStarted,
		"Completed":   Completed,
		"Rejected":    RejectedByLab,
	}
	for high, want := range cases {
		got, ok := DetailedFromHighLevel(high)
		if !ok || got != want {
			t.Errorf("DetailedFromHighLevel(%s) = %s, %v; want %s", high, got, ok, want)
		}
	}
	if _, ok := DetailedFromHighLevel("Archived"); ok {
		t.Error("Unknown high-level status should not derive a detailed status")
	}
}
