package secret

import (
	"context"
	"errors"
	"testing"
)

// mapProvider serves secrets from a map; a missing ref is an error.
type mapProvider map[string]string

func (mapProvider) Name() string { return "map" }

func (m mapProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := m[ref]
	if !ok {
		return "", errors.New("no such secret")
	}
	return v, nil
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		wantErr  bool
	}{
		{in: "secretref:env:OPENDART_API_KEY", provider: "env", ref: "OPENDART_API_KEY"},
		{in: "secretref:file:C:/keys/dart", provider: "file", ref: "C:/keys/dart"},
		{in: "secretref:env:", wantErr: true},
		{in: "secretref::x", wantErr: true},
		{in: "secretref:env", wantErr: true},
		{in: "plain", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			provider, ref, err := ParseRef(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRef) {
					t.Fatalf("ParseRef() error = %v, want ErrInvalidRef", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRef() error = %v", err)
			}
			if provider != tt.provider || ref != tt.ref {
				t.Errorf("ParseRef() = %q, %q; want %q, %q", provider, ref, tt.provider, tt.ref)
			}
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("KFIN_TEST_KEY", "dart-key-123")
	t.Setenv("KFIN_TEST_REF", "secretref:map:alpha")
	r := NewResolver(EnvProvider{}, mapProvider{"alpha": "one", "blank": ""})

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "literal", in: "0123456789abcdef", want: "0123456789abcdef"},
		{name: "env expansion", in: "${KFIN_TEST_KEY}", want: "dart-key-123"},
		{name: "env provider", in: "secretref:env:KFIN_TEST_KEY", want: "dart-key-123"},
		{name: "custom provider", in: "secretref:map:alpha", want: "one"},
		{name: "reference from env", in: "$KFIN_TEST_REF", want: "one"},
		{name: "unset variable", in: "${KFIN_TEST_UNSET}", wantErr: ErrMissingEnv},
		{name: "empty value", in: "", wantErr: ErrEmptySecret},
		{name: "empty secret", in: "secretref:map:blank", wantErr: ErrEmptySecret},
		{name: "unknown provider", in: "secretref:vault:opendart", wantErr: ErrProviderNotRegistered},
		{name: "malformed", in: "secretref:map", wantErr: ErrInvalidRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolver_ProviderErrorNamesProvider(t *testing.T) {
	r := NewResolver(mapProvider{})

	_, err := r.Resolve(context.Background(), "secretref:map:missing")
	if err == nil || err.Error() != "secret: map: no such secret" {
		t.Fatalf("Resolve() error = %v", err)
	}
}

func TestResolver_Nil(t *testing.T) {
	t.Setenv("KFIN_TEST_VALUE", "v")
	var r *Resolver

	got, err := r.Resolve(context.Background(), "x-${KFIN_TEST_VALUE}")
	if err != nil || got != "x-v" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}
	if _, err := r.Resolve(context.Background(), "secretref:env:KFIN_TEST_VALUE"); !errors.Is(err, ErrProviderNotRegistered) {
		t.Errorf("nil Resolve(ref) error = %v, want ErrProviderNotRegistered", err)
	}
}
