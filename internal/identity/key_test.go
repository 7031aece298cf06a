package identity

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantKind  Kind
		wantValue string
		wantErr   bool
	}{
		{
			name:      "email is classified by at sign",
			raw:       "Buyer@Example.com",
			wantKind:  KindEmail,
			wantValue: "buyer@example.com",
		},
		{
			name:      "phone number has no at sign",
			raw:       "+2348012345678",
			wantKind:  KindPhone,
			wantValue: "+2348012345678",
		},
		{
			name:      "surrounding whitespace is trimmed",
			raw:       "  buyer@example.com ",
			wantKind:  KindEmail,
			wantValue: "buyer@example.com",
		},
		{
			name:    "empty key is rejected",
			raw:     "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got key %+v", key)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key.Kind != tt.wantKind {
				t.Fatalf("expected kind %q, got %q", tt.wantKind, key.Kind)
			}
			if key.Value != tt.wantValue {
				t.Fatalf("expected value %q, got %q", tt.wantValue, key.Value)
			}
		})
	}
}

func TestIsEmail(t *testing.T) {
	if !Email("a@b.com").IsEmail() {
		t.Fatal("expected email key to report IsEmail")
	}
	if Phone("+234").IsEmail() {
		t.Fatal("expected phone key to not report IsEmail")
	}
}
