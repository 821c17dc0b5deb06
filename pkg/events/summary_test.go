package events

import "testing"

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantMsg  string
		wantSev  Severity
		wantNote bool
	}{
		{
			name:     "new bill",
			frame:    `{"type":"NEW_BILL","created_by_name":"Asha","description":"Dinner"}`,
			wantMsg:  "Asha added a new bill: Dinner",
			wantSev:  SeveritySuccess,
			wantNote: true,
		},
		{
			name:     "new bill without author",
			frame:    `{"type":"NEW_BILL","description":"Taxi"}`,
			wantMsg:  "Someone added a new bill: Taxi",
			wantSev:  SeveritySuccess,
			wantNote: true,
		},
		{
			name:     "update bill",
			frame:    `{"type":"UPDATE_BILL","description":"Groceries"}`,
			wantMsg:  "Bill updated: Groceries",
			wantSev:  SeverityInfo,
			wantNote: true,
		},
		{
			name:     "settle up count",
			frame:    `{"type":"SETTLE_UP","settled_count":2}`,
			wantMsg:  "Recorded 2 settlement transactions",
			wantSev:  SeveritySuccess,
			wantNote: true,
		},
		{
			name:     "settle up single",
			frame:    `{"type":"SETTLE_UP","settled_count":1}`,
			wantMsg:  "Recorded 1 settlement transaction",
			wantSev:  SeveritySuccess,
			wantNote: true,
		},
		{
			name:     "settle up pair",
			frame:    `{"type":"SETTLE_UP","payer_name":"Ravi","payee_name":"Mina","amount":"250.00"}`,
			wantMsg:  "Ravi settled up with Mina (250.00)",
			wantSev:  SeveritySuccess,
			wantNote: true,
		},
		{
			name:     "settle up anonymous",
			frame:    `{"type":"SETTLE_UP"}`,
			wantMsg:  "Group settled up",
			wantSev:  SeveritySuccess,
			wantNote: true,
		},
		{
			name:     "payment completed",
			frame:    `{"type":"PAYMENT_UPDATE","status":"COMPLETED","description":"Rent"}`,
			wantMsg:  "Payment completed: Rent",
			wantSev:  SeverityInfo,
			wantNote: true,
		},
		{
			name:     "payment failed",
			frame:    `{"type":"PAYMENT_UPDATE","status":"failed"}`,
			wantMsg:  "Payment failed",
			wantSev:  SeverityError,
			wantNote: true,
		},
		{
			name:  "unknown",
			frame: `{"type":"PING"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode("g1", []byte(tt.frame))
			if err != nil {
				t.Fatal(err)
			}
			n, ok := Summarize(m)
			if ok != tt.wantNote {
				t.Fatalf("Summarize ok = %v, want %v", ok, tt.wantNote)
			}
			if !ok {
				return
			}
			if n.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", n.Message, tt.wantMsg)
			}
			if n.Severity != tt.wantSev {
				t.Errorf("severity = %q, want %q", n.Severity, tt.wantSev)
			}
		})
	}
}
