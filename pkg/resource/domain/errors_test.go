package domain

import (
	"strings"
	"testing"
)

// TestErrColumnNotFound_Error 测试ErrColumnNotFound的Error方法
func TestErrColumnNotFound_Error(t *testing.T) {
	err := NewErrColumnNotFound("invalid_column", "users")
	expected := "column invalid_column not found in table users"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}

	bare := NewErrColumnNotFound("v", "")
	if bare.Error() != "column v not found" {
		t.Errorf("Expected message without table, got '%s'", bare.Error())
	}
}

// TestErrTypeConversion_Error 测试ErrTypeConversion的Error方法
func TestErrTypeConversion_Error(t *testing.T) {
	err := &ErrTypeConversion{
		FieldName: "age",
		FromType:  "VARCHAR",
		ToType:    "INT",
		Value:     "abc",
	}
	errMsg := err.Error()

	expected := "type conversion failed for field age: cannot convert abc from VARCHAR to INT"
	if errMsg != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, errMsg)
	}

	withReason := NewErrTypeConversion(int64(70000), "BIGINT", "SMALLINT", "value out of range")
	if !strings.HasSuffix(withReason.Error(), ": value out of range") {
		t.Errorf("Expected reason suffix, got '%s'", withReason.Error())
	}
	if !strings.Contains(withReason.Error(), "70000") {
		t.Errorf("Expected error message to contain the value")
	}
}

// TestErrInvalidConfig_Error 测试ErrInvalidConfig的Error方法
func TestErrInvalidConfig_Error(t *testing.T) {
	err := NewErrInvalidConfig("handle.driver", "unsupported driver oracle")
	expected := "invalid config for handle.driver: unsupported driver oracle"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}

// TestErrConnectionFailed_Error 测试ErrConnectionFailed的Error方法
func TestErrConnectionFailed_Error(t *testing.T) {
	err := NewErrConnectionFailed("postgres", "connection refused")
	expected := "failed to connect to postgres data source: connection refused"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}
}
