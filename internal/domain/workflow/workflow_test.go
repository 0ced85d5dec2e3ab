package workflow

import (
	"errors"
	"testing"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		reportType string
		wantErr    bool
		wantFirst  Status
	}{
		{
			name:      "transfer workflow",
			kind:      KindTransfer,
			wantFirst: StatusPendingSender,
		},
		{
			name:      "asset request workflow",
			kind:      KindAssetRequest,
			wantFirst: StatusPendingHC,
		},
		{
			name:       "block inventory report",
			kind:       KindInventoryReport,
			reportType: ReportBlockInventory,
			wantFirst:  StatusPendingHC,
		},
		{
			name:       "summary report",
			kind:       KindInventoryReport,
			reportType: ReportSummary,
			wantFirst:  StatusPendingHC,
		},
		{
			name:       "unknown report type",
			kind:       KindInventoryReport,
			reportType: "QUARTERLY",
			wantErr:    true,
		},
		{
			name:    "unknown kind",
			kind:    Kind("voucher"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, err := For(tt.kind, tt.reportType)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownWorkflow) {
					t.Errorf("For() error = %v, want ErrUnknownWorkflow", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("For() error = %v", err)
			}
			if got := wf.First().Status; got != tt.wantFirst {
				t.Errorf("First() = %v, want %v", got, tt.wantFirst)
			}
		})
	}
}

func TestTransferChain(t *testing.T) {
	wf, err := For(KindTransfer, "")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}

	chain := []struct {
		from Status
		want Status
	}{
		{StatusPendingSender, StatusPendingReceiver},
		{StatusPendingReceiver, StatusPendingAdmin},
		{StatusPendingAdmin, StatusCompleted},
	}

	for _, step := range chain {
		got, err := wf.Next(step.from)
		if err != nil {
			t.Fatalf("Next(%v) error = %v", step.from, err)
		}
		if got != step.want {
			t.Errorf("Next(%v) = %v, want %v", step.from, got, step.want)
		}
	}

	if _, err := wf.Next(StatusCompleted); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("Next(COMPLETED) error = %v, want ErrStateMismatch", err)
	}
}

func TestRequestChain(t *testing.T) {
	wf, err := For(KindAssetRequest, "")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}

	chain := []struct {
		from Status
		want Status
	}{
		{StatusPendingHC, StatusPendingBlockLeader},
		{StatusPendingBlockLeader, StatusPendingKT},
		{StatusPendingKT, StatusCompleted},
	}

	for _, step := range chain {
		got, err := wf.Next(step.from)
		if err != nil {
			t.Fatalf("Next(%v) error = %v", step.from, err)
		}
		if got != step.want {
			t.Errorf("Next(%v) = %v, want %v", step.from, got, step.want)
		}
	}
}

func TestReportChains(t *testing.T) {
	tests := []struct {
		name       string
		reportType string
		statuses   []Status
		keys       []SignatureKey
	}{
		{
			name:       "block inventory",
			reportType: ReportBlockInventory,
			statuses:   []Status{StatusPendingHC, StatusPendingDeptLeader, StatusPendingDirector},
			keys:       []SignatureKey{KeyHC, KeyDeptLeader, KeyDirector},
		},
		{
			name:       "summary report",
			reportType: ReportSummary,
			statuses:   []Status{StatusPendingHC, StatusPendingKT, StatusPendingDirector},
			keys:       []SignatureKey{KeyHC, KeyKT, KeyDirector},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, err := For(KindInventoryReport, tt.reportType)
			if err != nil {
				t.Fatalf("For() error = %v", err)
			}
			if len(wf.Steps) != len(tt.statuses) {
				t.Fatalf("len(Steps) = %d, want %d", len(wf.Steps), len(tt.statuses))
			}
			for i, step := range wf.Steps {
				if step.Status != tt.statuses[i] {
					t.Errorf("step %d status = %v, want %v", i, step.Status, tt.statuses[i])
				}
				if step.SignatureKey != tt.keys[i] {
					t.Errorf("step %d key = %v, want %v", i, step.SignatureKey, tt.keys[i])
				}
			}

			// Last step advances to COMPLETED
			last := wf.Steps[len(wf.Steps)-1].Status
			next, err := wf.Next(last)
			if err != nil {
				t.Fatalf("Next(%v) error = %v", last, err)
			}
			if next != StatusCompleted {
				t.Errorf("Next(%v) = %v, want COMPLETED", last, next)
			}
		})
	}
}

func TestRequires(t *testing.T) {
	wf, err := For(KindTransfer, "")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}

	tests := []struct {
		name     string
		expected Status
		key      SignatureKey
		wantErr  bool
	}{
		{
			name:     "matching step",
			expected: StatusPendingSender,
			key:      KeySender,
		},
		{
			name:     "key belongs to a later step",
			expected: StatusPendingSender,
			key:      KeyAdmin,
			wantErr:  true,
		},
		{
			name:     "status and key from different steps",
			expected: StatusPendingReceiver,
			key:      KeySender,
			wantErr:  true,
		},
		{
			name:     "terminal status is not a step",
			expected: StatusCompleted,
			key:      KeyAdmin,
			wantErr:  true,
		},
		{
			name:     "key from another workflow",
			expected: StatusPendingSender,
			key:      KeyHC,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wf.Requires(tt.expected, tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrStateMismatch) {
					t.Errorf("Requires() error = %v, want ErrStateMismatch", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Requires() error = %v", err)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusCompleted, true},
		{StatusRejected, true},
		{StatusPendingSender, false},
		{StatusPendingHC, false},
		{StatusPendingDirector, false},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%v.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusIsValid(t *testing.T) {
	if !StatusPendingKT.IsValid() {
		t.Error("PENDING_KT should be valid")
	}
	if Status("SHIPPED").IsValid() {
		t.Error("unknown status should not be valid")
	}
}
