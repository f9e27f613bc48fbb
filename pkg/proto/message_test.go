package proto

import (
	"ctchen222/tictactoe-timetravel/internal/validator"
	"testing"
)

func intPtr(i int) *int { return &i }

func TestClientToServerMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     ClientToServerMessage
		wantErr bool
	}{
		{name: "Move with cell", msg: ClientToServerMessage{Type: TypeMove, Cell: intPtr(0)}},
		{name: "Jump with step", msg: ClientToServerMessage{Type: TypeJump, Step: intPtr(3)}},
		{name: "Move without cell", msg: ClientToServerMessage{Type: TypeMove}, wantErr: true},
		{name: "Jump without step", msg: ClientToServerMessage{Type: TypeJump, Cell: intPtr(1)}, wantErr: true},
		{name: "Unknown type", msg: ClientToServerMessage{Type: "rematch"}, wantErr: true},
		{name: "Missing type", msg: ClientToServerMessage{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.GetValidator().Struct(tt.msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
