package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUserErrorDetection(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Userf("bad flag %q", "--x"))
	if !IsUser(err) {
		t.Fatalf("IsUser(%v) = false, want true", err)
	}
	if IsUser(errors.New("plain")) {
		t.Fatalf("IsUser(plain) = true, want false")
	}
}

func TestConfigurationError_Message(t *testing.T) {
	tcs := []struct {
		err  *ConfigurationError
		want string
	}{
		{&ConfigurationError{}, "configuration: invalid configuration"},
		{&ConfigurationError{Source: "rules.yaml", Problems: []string{"no damage types"}}, "rules.yaml: no damage types"},
		{&ConfigurationError{Source: "rules.yaml", Problems: []string{"a", "b", "c"}}, "rules.yaml: a (and 2 more problem(s))"},
	}
	for _, tc := range tcs {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	cfg := fmt.Errorf("load: %w", Configf("x.yaml", "sentinel %q missing", "No_Damage"))
	if !IsConfiguration(cfg) {
		t.Fatalf("expected configuration error")
	}

	val := fmt.Errorf("row 3: %w", &ValidationError{RecordID: "w-1", Field: "permeability", Value: -2, Min: 0, Max: 10000})
	if !IsValidation(val) {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(val.Error(), "permeability=-2") {
		t.Fatalf("message = %q, want field and value", val.Error())
	}

	comp := &ComputationError{Column: "ph", Reason: "zero standard deviation"}
	if !IsComputation(comp) || IsComputation(val) {
		t.Fatalf("IsComputation mismatch")
	}
}
