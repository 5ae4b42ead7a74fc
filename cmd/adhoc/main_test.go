package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const defs = `
types:
  - name: group
    kind: struct
    from: 1
    mandatory:
      - {key: id, type: group-id}
      - {key: parent, type: group, nullable: true}
  - name: group-id
    kind: integer
    min: 0
    max: 100
functions:
  - name: group_get
    params: [{name: id, type: group-id}]
    returns: {type: group}
  - name: group_list
    from: 1
    to: 1
    returns: {type: group, list: true}
`

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfg := write(t, dir, "adhoc.yaml", "api:\n  min_version: 1\n  max_version: 2\nlog:\n  level: error\n")
	d := write(t, dir, "api.yaml", defs)
	for i, a := range args {
		if strings.HasPrefix(a, "payload:") {
			name, body, _ := strings.Cut(strings.TrimPrefix(a, "payload:"), "=")
			args[i] = write(t, dir, name, body)
		}
	}
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append(args, "--config", cfg, "--defs", d))
	err := cmd.Execute()
	return out.String(), err
}

func TestNames(t *testing.T) {
	out, err := run(t, "names")
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	want := "v1\n  functions: groupGet groupList\n  types: group groupId groupOrNull\n" +
		"v2\n  functions: groupGet\n  types: group groupId groupOrNull\n"
	if out != want {
		t.Fatalf("got:\n%s", out)
	}
}

func TestSchema(t *testing.T) {
	out, err := run(t, "schema", "--api-version", "1")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	for _, s := range []string{`"groupGetParams"`, `"groupListResult"`, `"$ref": "#/$defs/groupId"`} {
		if !strings.Contains(out, s) {
			t.Fatalf("missing %s in\n%s", s, out)
		}
	}
	out, err = run(t, "schema", "--type", "group-id", "--compact")
	if err != nil || !strings.Contains(out, `"maximum":100`) {
		t.Fatalf("type schema %q: %v", out, err)
	}
	if _, err := run(t, "schema", "--api-version", "7"); err == nil {
		t.Fatal("unknown version must fail")
	}
}

func TestCheck(t *testing.T) {
	out, err := run(t, "check", "--type", "group", `payload:ok.json={"id": 3, "parent": null}`)
	if err != nil || out != "ok\n" {
		t.Fatalf("ok payload: %q %v", out, err)
	}

	out, err = run(t, "check", "--type", "group", "payload:bad.yaml=id: 300\nparent: {id: 1, parent: null, x: 1}\n")
	if !errors.Is(err, errIssues) {
		t.Fatalf("want issues, got %v", err)
	}
	if !strings.Contains(out, "/id: too_big") || !strings.Contains(out, "/parent/x: unknown_key") {
		t.Fatalf("issues:\n%s", out)
	}

	out, err = run(t, "check", "--function", "group_get", `payload:args.json=["x"]`)
	if !errors.Is(err, errIssues) || !strings.Contains(out, "/params/0: invalid_type") {
		t.Fatalf("args: %q %v", out, err)
	}

	out, err = run(t, "check", "--type", "group", `payload:dup.json={"id": 1, "id": 2, "parent": null}`)
	if !errors.Is(err, errIssues) || !strings.Contains(out, "/id: duplicate_key") {
		t.Fatalf("duplicate: %q %v", out, err)
	}

	if _, err := run(t, "check", "--type", "group", "--function", "group_get", "payload:x.json={}"); err == nil || errors.Is(err, errIssues) {
		t.Fatalf("flag conflict: %v", err)
	}
}

func TestCapsify(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out, &out)
	cmd.SetArgs([]string{"capsify", "list_groups", "XMLParser"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "list_groups\tlistGroups\nXMLParser\txmlParser\n" {
		t.Fatalf("got %q", out.String())
	}
}
