package photosync

import (
	"testing"
	"time"

	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/testutil"
)

func TestSync_RegistersBlobsOnDisk(t *testing.T) {
	db := testutil.TestDB(t)
	_, blobs := testutil.TestPhotoDir(t)

	if err := blobs.Write("p1.jpg", []byte{0xFF, 0xD8, 0xFF}); err != nil {
		t.Fatal(err)
	}
	if err := blobs.Write("p2.png", []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, blobs, testutil.DiscardLogger()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	p1, err := db.GetPhoto("p1")
	if err != nil {
		t.Fatalf("p1 not registered: %v", err)
	}
	if p1.Mime != "image/jpeg" {
		t.Errorf("p1 mime = %q", p1.Mime)
	}
	if p1.SizeBytes != 3 {
		t.Errorf("p1 size = %d", p1.SizeBytes)
	}
	if p1.Checksum == "" {
		t.Error("p1 checksum is empty")
	}

	p2, err := db.GetPhoto("p2")
	if err != nil {
		t.Fatalf("p2 not registered: %v", err)
	}
	if p2.Mime != "image/png" {
		t.Errorf("p2 mime = %q", p2.Mime)
	}
}

func TestSync_RemovesStaleRows(t *testing.T) {
	db := testutil.TestDB(t)
	_, blobs := testutil.TestPhotoDir(t)

	// A row whose blob never existed on disk.
	err := db.PutPhoto(&models.Photo{
		ID: "ghost", Mime: "image/jpeg", SizeBytes: 10, UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := Sync(db, blobs, testutil.DiscardLogger()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if _, err := db.GetPhoto("ghost"); err == nil {
		t.Error("stale row should have been removed")
	}
}

func TestSync_Idempotent(t *testing.T) {
	db := testutil.TestDB(t)
	_, blobs := testutil.TestPhotoDir(t)

	if err := blobs.Write("p1.jpg", []byte{0xFF, 0xD8, 0xFF}); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := Sync(db, blobs, testutil.DiscardLogger()); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}

	all, err := db.AllPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("photos = %d, want 1", len(all))
	}
}

func TestSync_ReregistersChangedBlob(t *testing.T) {
	db := testutil.TestDB(t)
	_, blobs := testutil.TestPhotoDir(t)

	if err := blobs.Write("p1.jpg", []byte{0xFF, 0xD8, 0xFF}); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, blobs, testutil.DiscardLogger()); err != nil {
		t.Fatal(err)
	}
	before, err := db.GetPhoto("p1")
	if err != nil {
		t.Fatal(err)
	}

	// Overwrite the blob out-of-band; checksum changes, row must follow.
	if err := blobs.Write("p1.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, blobs, testutil.DiscardLogger()); err != nil {
		t.Fatal(err)
	}

	after, err := db.GetPhoto("p1")
	if err != nil {
		t.Fatal(err)
	}
	if after.Checksum == before.Checksum {
		t.Error("checksum not refreshed after blob change")
	}
	if after.SizeBytes != 5 {
		t.Errorf("size = %d, want 5", after.SizeBytes)
	}
}
