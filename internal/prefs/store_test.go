package prefs_test

import (
	"context"
	"testing"

	"qcm-runner/internal/domain"
	"qcm-runner/internal/infra/memory"
	"qcm-runner/internal/prefs"
)

func TestSettingsDefaultsWhenMissingOrCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := prefs.NewStore(kv, "p1", domain.DefaultSettings())

	if got := store.Settings(ctx); got != domain.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}

	_ = kv.Set(ctx, "qcm:p1:settings", "{not json")
	if got := store.Settings(ctx); got != domain.DefaultSettings() {
		t.Fatalf("expected defaults on corrupt data, got %+v", got)
	}
}

func TestSettingsMergeOverDefaults(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := prefs.NewStore(kv, "p1", domain.DefaultSettings())

	_ = kv.Set(ctx, "qcm:p1:settings", `{"timer": true, "tsec": 12}`)
	got := store.Settings(ctx)
	if !got.TimerEnabled || got.TimerSeconds != 12 {
		t.Fatalf("expected stored timer fields, got %+v", got)
	}
	if !got.InstantDisclosure || got.LimitCount != domain.DefaultLimitCount {
		t.Fatalf("expected missing keys to default, got %+v", got)
	}

	got.LimitEnabled = true
	if err := store.SaveSettings(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !store.Settings(ctx).LimitEnabled {
		t.Fatalf("expected saved settings to round trip")
	}
}

func TestSelectionFallsBackOnEmptyOrCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	store := prefs.NewStore(kv, "", domain.DefaultSettings())

	for _, raw := range []string{"[]", "oops", `{"a":1}`} {
		_ = kv.Set(ctx, "qcm:default:selection", raw)
		if got := store.Selection(ctx); got != nil {
			t.Fatalf("expected nil selection for %q, got %v", raw, got)
		}
	}

	if err := store.SaveSelection(ctx, []string{"def", "met"}); err != nil {
		t.Fatalf("save selection: %v", err)
	}
	if got := store.Selection(ctx); len(got) != 2 || got[1] != "met" {
		t.Fatalf("unexpected selection %v", got)
	}
}
