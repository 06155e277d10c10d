package anki

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Package bundles a deck and its media for export as one apkg file.
type Package struct {
	Deck  *Deck
	Media []MediaFile
}

// WriteToFile builds the collection database, packs it together with
// the media into a zip archive and writes the archive to path.
func (p *Package) WriteToFile(ctx context.Context, path string) error {
	if p.Deck == nil {
		return fmt.Errorf("package has no deck")
	}

	scratch, err := os.MkdirTemp("", "apkg-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	collectionPath := filepath.Join(scratch, "collection.anki2")
	if err := writeCollection(ctx, collectionPath, p.Deck, time.Now()); err != nil {
		return err
	}
	collection, err := os.ReadFile(collectionPath)
	if err != nil {
		return fmt.Errorf("read collection db: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create package file: %w", err)
	}
	if err := writeArchive(out, collection, p.Media); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close package file: %w", err)
	}
	return nil
}

// writeArchive lays out the zip the way Anki expects: the collection
// database, media blobs under ascending numeric names, and a manifest
// mapping those names back to file names.
func writeArchive(dst io.Writer, collection []byte, media []MediaFile) error {
	zw := zip.NewWriter(dst)

	entry, err := zw.Create("collection.anki2")
	if err != nil {
		return fmt.Errorf("add collection entry: %w", err)
	}
	if _, err := entry.Write(collection); err != nil {
		return fmt.Errorf("write collection entry: %w", err)
	}

	manifest := map[string]string{}
	for i, m := range media {
		name := strconv.Itoa(i)
		manifest[name] = m.Name
		blob, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("add media entry %s: %w", m.Name, err)
		}
		if _, err := blob.Write(m.Data); err != nil {
			return fmt.Errorf("write media entry %s: %w", m.Name, err)
		}
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal media manifest: %w", err)
	}
	manifestEntry, err := zw.Create("media")
	if err != nil {
		return fmt.Errorf("add media manifest: %w", err)
	}
	if _, err := manifestEntry.Write(manifestJSON); err != nil {
		return fmt.Errorf("write media manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish package archive: %w", err)
	}
	return nil
}
