// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"bytes"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/toeirei/lockbox/internal/model"
)

func TestRenderCredentialAlignsItems(t *testing.T) {
	var buf bytes.Buffer
	renderCredential(&buf, model.DecryptedCredential{
		Name: "GitHub",
		Items: map[string]string{
			"user":     "alice",
			"password": "s3cret",
			"url":      "",
		},
	})

	want := "[GitHub]\n" +
		"  password = s3cret\n" +
		"  url      = [empty]\n" +
		"  user     = alice\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected rendering:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderNamesSortsWithoutMutating(t *testing.T) {
	names := []string{"Mail", "Bank", "GitHub"}

	var buf bytes.Buffer
	renderNames(&buf, names)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "  Bank" || lines[1] != "  GitHub" || lines[2] != "  Mail" {
		t.Fatalf("names not sorted: %v", lines)
	}
	if names[0] != "Mail" {
		t.Fatalf("input slice was mutated: %v", names)
	}
}

func TestResolveBuildVersionPrefersModuleVersion(t *testing.T) {
	info := &debug.BuildInfo{}
	info.Main.Version = "v1.2.3"

	v, _, _ := resolveBuildVersion(info)
	if v != "v1.2.3" {
		t.Fatalf("expected module version, got %q", v)
	}
}

func TestResolveBuildVersionTruncatesCommit(t *testing.T) {
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		},
	}

	_, c, _ := resolveBuildVersion(info)
	if c != "0123456789ab" {
		t.Fatalf("expected truncated commit, got %q", c)
	}
}

func TestPrompterFallsBackToPlainRead(t *testing.T) {
	var out bytes.Buffer
	p := &terminalPrompter{reader: bufio.NewReader(strings.NewReader("hunter2\n")), out: &out}

	got, err := p.readSecret("Password: ")
	if err != nil {
		t.Fatalf("readSecret failed: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("expected hunter2, got %q", got)
	}
}

func TestNewPasswordRejectsMismatch(t *testing.T) {
	var out bytes.Buffer
	p := &terminalPrompter{reader: bufio.NewReader(strings.NewReader("one\ntwo\n")), out: &out}

	if _, err := p.NewPassword(); err == nil {
		t.Fatalf("expected an error for mismatched passwords")
	}
}

func TestNewPasswordAcceptsMatchingEntries(t *testing.T) {
	var out bytes.Buffer
	p := &terminalPrompter{reader: bufio.NewReader(strings.NewReader("pw\npw\n")), out: &out}

	got, err := p.NewPassword()
	if err != nil {
		t.Fatalf("NewPassword failed: %v", err)
	}
	if got != "pw" {
		t.Fatalf("expected pw, got %q", got)
	}
}
