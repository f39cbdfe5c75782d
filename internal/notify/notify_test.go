package notify

import (
	"testing"

	"github.com/zduu/star-auto/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.NotifyConfig
		wantNil bool
		wantErr bool
	}{
		{
			name:    "empty provider disables",
			cfg:     config.NotifyConfig{},
			wantNil: true,
		},
		{
			name: "webhook configured",
			cfg:  config.NotifyConfig{Provider: "webhook", WebhookURL: "https://hooks.example.com/x"},
		},
		{
			name:    "webhook without url",
			cfg:     config.NotifyConfig{Provider: "webhook"},
			wantErr: true,
		},
		{
			name: "smtp configured",
			cfg: config.NotifyConfig{
				Provider: "smtp",
				SMTPHost: "smtp.example.com",
				SMTPPort: 587,
				ToAddr:   "me@example.com",
			},
		},
		{
			name:    "smtp without host",
			cfg:     config.NotifyConfig{Provider: "smtp", ToAddr: "me@example.com"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     config.NotifyConfig{Provider: "carrier-pigeon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewFromConfig() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFromConfig() error = %v", err)
			}
			if tt.wantNil != (n == nil) {
				t.Errorf("NewFromConfig() nil = %v, want %v", n == nil, tt.wantNil)
			}
		})
	}
}

func TestNilNotifierSend(t *testing.T) {
	var n *Notifier
	if err := n.Send("subject", "body"); err != nil {
		t.Errorf("nil notifier Send() error = %v, want nil", err)
	}
}
