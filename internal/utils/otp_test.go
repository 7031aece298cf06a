package utils

import (
	"strconv"
	"testing"
)

func TestGenerateOtpCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOtpCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code is not numeric: %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code out of range: %d", n)
		}
	}
}

func TestDigestOtpCode(t *testing.T) {
	first := DigestOtpCode("123456")
	second := DigestOtpCode("123456")
	if first != second {
		t.Fatal("digest must be deterministic")
	}
	if first == "123456" {
		t.Fatal("digest must not equal the plaintext code")
	}
	if len(first) != 64 {
		t.Fatalf("expected hex sha256 digest, got %d chars", len(first))
	}
}

func TestCheckOtpCode(t *testing.T) {
	digest := DigestOtpCode("654321")
	if !CheckOtpCode(digest, "654321") {
		t.Fatal("matching code must verify")
	}
	if CheckOtpCode(digest, "654322") {
		t.Fatal("mismatching code must not verify")
	}
	if CheckOtpCode(digest, "") {
		t.Fatal("empty code must not verify")
	}
}
