package repl

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"comfyctl/internal/history"
	"comfyctl/internal/preset"
	"comfyctl/internal/workflow"
)

type testEnv struct {
	repl    *REPL
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	store   *preset.Store
	history *history.Store
}

// newTestREPL builds a REPL over a temp store seeded with a few fragments,
// a history store in the same directory, and a client pointed at handler.
func newTestREPL(t *testing.T, input string, handler http.HandlerFunc) *testEnv {
	t.Helper()

	root := t.TempDir()
	store := preset.NewStore(root)

	frags := preset.NewFragmentSet()
	frags[preset.CategoryQuality] = []preset.Fragment{{Name: "q1", Value: "masterpiece"}}
	frags[preset.CategoryStyle] = []preset.Fragment{{Name: "anime", Value: "anime style"}}
	frags[preset.CategoryCharacter] = []preset.Fragment{{Name: "misa", Value: "1girl, misa"}}
	frags[preset.CategoryExtra] = []preset.Fragment{{Name: "rain", Value: "heavy rain"}}
	if err := store.SaveFragments(frags); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	hist, err := history.NewStore(root)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { hist.Close() })

	settings := preset.DefaultSettings()
	settings.Seed = preset.FixedSeed(7)

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := New(&Config{
		In:       strings.NewReader(input),
		Out:      out,
		Err:      errOut,
		Store:    store,
		Client:   workflow.New(&workflow.Config{BaseURL: server.URL}),
		History:  hist,
		Settings: settings,
	})

	return &testEnv{repl: r, out: out, errOut: errOut, store: store, history: hist}
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(`{"prompt_id": "abc"}`))
}

func TestREPL_GenerateAndList(t *testing.T) {
	env := newTestREPL(t, strings.Join([]string{
		"select character misa",
		"select style anime",
		"select quality q1",
		"generate",
		"list",
		"quit",
	}, "\n"), okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := env.out.String()
	if !strings.Contains(out, "Generated: misa-anime-q1") {
		t.Errorf("output missing generated key:\n%s", out)
	}
	if !strings.Contains(out, "masterpiece, anime style, 1girl, misa") {
		t.Errorf("output missing composed prompt:\n%s", out)
	}

	// The generated prompt must survive in the store, not just in memory.
	gen, err := env.store.LoadGenerated()
	if err != nil {
		t.Fatalf("LoadGenerated() error = %v", err)
	}
	if _, ok := gen.Get("misa-anime-q1"); !ok {
		t.Error("generated prompt was not persisted")
	}
}

func TestREPL_GenerateEmptySelection(t *testing.T) {
	env := newTestREPL(t, "generate\nquit\n", okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(env.errOut.String(), "Error:") {
		t.Errorf("empty selection did not report an error:\n%s", env.errOut.String())
	}
}

func TestREPL_SelectClearSelections(t *testing.T) {
	env := newTestREPL(t, strings.Join([]string{
		"select character misa",
		"select extra rain night",
		"clear character",
		"selections",
		"quit",
	}, "\n"), okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := env.out.String()
	if !strings.Contains(out, "character: (none)") {
		t.Errorf("cleared category still shown:\n%s", out)
	}
	if !strings.Contains(out, "rain, night") {
		t.Errorf("extra selection missing:\n%s", out)
	}
}

func TestREPL_SendLogsHistory(t *testing.T) {
	env := newTestREPL(t, strings.Join([]string{
		"select character misa",
		"generate",
		"send misa",
		"quit",
	}, "\n"), okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := env.out.String()
	if !strings.Contains(out, "misa: sent (seed 7)") {
		t.Errorf("send output missing seed report:\n%s", out)
	}
	if !strings.Contains(out, "Sent 1 of 1.") {
		t.Errorf("send summary missing:\n%s", out)
	}

	subs, err := env.history.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("history has %d rows, want 1", len(subs))
	}
	if subs[0].PromptKey != "misa" || !subs[0].OK || subs[0].Seed != 7 {
		t.Errorf("logged submission = %+v", subs[0])
	}
}

func TestREPL_SendServerError(t *testing.T) {
	env := newTestREPL(t, strings.Join([]string{
		"select character misa",
		"generate",
		"send misa",
		"quit",
	}, "\n"), func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad graph", http.StatusInternalServerError)
	})

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(env.errOut.String(), "server returned 500") {
		t.Errorf("server error not reported:\n%s", env.errOut.String())
	}
	if !strings.Contains(env.out.String(), "Sent 0 of 1.") {
		t.Errorf("send summary wrong:\n%s", env.out.String())
	}

	subs, err := env.history.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(subs) != 1 || subs[0].OK {
		t.Errorf("failed submission not logged as failure: %+v", subs)
	}
}

func TestREPL_SendUnknownKey(t *testing.T) {
	env := newTestREPL(t, "send nosuch\nquit\n", okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(env.errOut.String(), "no such prompt") {
		t.Errorf("unknown key not reported:\n%s", env.errOut.String())
	}
	if !strings.Contains(env.out.String(), "Sent 0 of 1.") {
		t.Errorf("send summary wrong:\n%s", env.out.String())
	}
}

func TestREPL_DeletePrompt(t *testing.T) {
	env := newTestREPL(t, strings.Join([]string{
		"select character misa",
		"generate",
		"delete misa nosuch",
		"list",
		"quit",
	}, "\n"), okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(env.out.String(), "Deleted 1 of 2.") {
		t.Errorf("delete summary wrong:\n%s", env.out.String())
	}
	if !strings.Contains(env.out.String(), "No generated prompts.") {
		t.Errorf("list still shows deleted prompt:\n%s", env.out.String())
	}
}

func TestREPL_FragAddPersists(t *testing.T) {
	env := newTestREPL(t, strings.Join([]string{
		`frag add pose standing "standing, full body"`,
		"quit",
	}, "\n"), okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(env.out.String(), "Saved pose/standing.") {
		t.Errorf("frag add output wrong:\n%s", env.out.String())
	}

	frags, err := env.store.LoadFragments()
	if err != nil {
		t.Fatalf("LoadFragments() error = %v", err)
	}
	f, ok := frags.Lookup(preset.CategoryPose, "standing")
	if !ok || f.Value != "standing, full body" {
		t.Errorf("fragment not persisted: %+v ok=%v", f, ok)
	}
}

func TestREPL_PresetUseAndSave(t *testing.T) {
	env := newTestREPL(t, strings.Join([]string{
		"preset save",
		"preset list",
		"preset use default",
		"quit",
	}, "\n"), okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := env.out.String()
	if !strings.Contains(out, "Saved preset default.") {
		t.Errorf("preset save output wrong:\n%s", out)
	}
	if !strings.Contains(out, "* default") {
		t.Errorf("preset list missing active marker:\n%s", out)
	}
	if !strings.Contains(out, "Using preset default.") {
		t.Errorf("preset use output wrong:\n%s", out)
	}
}

func TestREPL_UnknownCommand(t *testing.T) {
	env := newTestREPL(t, "frobnicate\nquit\n", okHandler)

	if err := env.repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(env.errOut.String(), "unknown command: frobnicate") {
		t.Errorf("unknown command not reported:\n%s", env.errOut.String())
	}
}

func TestREPL_MalformedFragmentsWarnsAndRuns(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "prompts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "prompts", "prompt_presets.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := New(&Config{
		In:     strings.NewReader("quit\n"),
		Out:    out,
		Err:    errOut,
		Store:  preset.NewStore(root),
		Client: workflow.New(&workflow.Config{}),
	})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(errOut.String(), "Warning:") {
		t.Errorf("malformed fragments did not warn:\n%s", errOut.String())
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`frag add pose standing "standing, full body"`, []string{"frag", "add", "pose", "standing", "standing, full body"}},
		{`select character misa`, []string{"select", "character", "misa"}},
		{`show 'a key'`, []string{"show", "a key"}},
		{`   `, nil},
	}

	for _, tt := range tests {
		if got := parseCommand(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseCommand(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
