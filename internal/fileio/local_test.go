package fileio

import (
	"context"
	"errors"
	"testing"
)

func TestLocal_WriteReadRoundTrip(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	if err := l.WriteFile(ctx, "pt=2024/bucket-0/data-1", []byte("rows")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := ReadFile(ctx, l, "pt=2024/bucket-0/data-1")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "rows" {
		t.Errorf("read %q, want %q", data, "rows")
	}

	size, err := l.Size(ctx, "pt=2024/bucket-0/data-1")
	if err != nil || size != 4 {
		t.Errorf("Size = %d, %v; want 4, nil", size, err)
	}
}

func TestLocal_ReadMissingIsNotFound(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	defer l.Close()

	_, err = l.NewReader(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file should map to ErrNotFound, got: %v", err)
	}
}

func TestLocal_DeleteMissingSucceeds(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	defer l.Close()

	if err := l.Delete(context.Background(), "never-existed", false); err != nil {
		t.Errorf("deleting a missing path must be idempotent, got: %v", err)
	}
}

func TestLocal_NonRecursiveDeleteOfPopulatedDir(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	if err := l.WriteFile(ctx, "pt=2024/bucket-0/data-1", []byte("rows")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	err = l.Delete(ctx, "pt=2024/bucket-0", false)
	if !errors.Is(err, ErrDirNotEmpty) {
		t.Fatalf("populated directory should fail with ErrDirNotEmpty, got: %v", err)
	}

	// Empty the directory; now the non-recursive delete succeeds.
	if err := l.Delete(ctx, "pt=2024/bucket-0/data-1", false); err != nil {
		t.Fatalf("Delete file failed: %v", err)
	}
	if err := l.Delete(ctx, "pt=2024/bucket-0", false); err != nil {
		t.Errorf("emptied directory delete failed: %v", err)
	}
	ok, err := l.Exists(ctx, "pt=2024/bucket-0")
	if err != nil || ok {
		t.Errorf("directory should be gone, got exists=%v err=%v", ok, err)
	}
}

func TestLocal_RecursiveDelete(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	for _, p := range []string{"pt=2024/bucket-0/data-1", "pt=2024/bucket-1/data-2"} {
		if err := l.WriteFile(ctx, p, []byte("rows")); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
	if err := l.Delete(ctx, "pt=2024", true); err != nil {
		t.Fatalf("recursive delete failed: %v", err)
	}
	if ok, _ := l.Exists(ctx, "pt=2024"); ok {
		t.Error("recursively deleted tree should be gone")
	}
}

func TestLocal_List(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	defer l.Close()
	ctx := context.Background()

	if err := l.WriteFile(ctx, "manifest/manifest-a", []byte("x")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := l.WriteFile(ctx, "manifest/manifest-b", []byte("xy")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	statuses, err := l.List(ctx, "manifest")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("listed %d entries, want 2", len(statuses))
	}
	if statuses[0].Path != "manifest/manifest-a" || statuses[0].Size != 1 {
		t.Errorf("unexpected first entry: %+v", statuses[0])
	}

	// Missing directory lists as empty, matching object stores.
	statuses, err = l.List(ctx, "no-such-dir")
	if err != nil || len(statuses) != 0 {
		t.Errorf("List of missing dir = %v, %v; want empty, nil", statuses, err)
	}
}

func TestLocal_ClosedRejectsOperations(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := l.WriteFile(context.Background(), "f", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("write after close = %v, want ErrClosed", err)
	}
}
