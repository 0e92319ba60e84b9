package main

import (
	"database/sql"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// sniffImageExt reads the leading bytes, verifies the content is an allowed
// image type and rewinds the reader. Extension comes from the sniffed MIME,
// never from the client-supplied filename.
func sniffImageExt(f multipart.File) (string, error) {
	head := make([]byte, 512)
	n, _ := f.Read(head)
	ctype := http.DetectContentType(head[:n])
	ext, ok := allowedImageTypes[ctype]
	if !ok {
		return "", fmt.Errorf("unsupported image type %s", ctype)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return ext, nil
}

// storeUpload writes the file under the upload dir with a random name,
// via a temp file and rename so a failed write never leaves a partial file.
func storeUpload(f multipart.File, subdir, prefix, ext string) (string, error) {
	dir := filepath.Join(cfg.UploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_%s.%s", prefix, uuid.NewString(), ext)
	dst := filepath.Join(dir, filename)
	tmp := dst + ".tmp"

	out, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, f); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	out.Close()
	if err := os.Rename(tmp, dst); err != nil {
		return "", err
	}
	return filename, nil
}

// POST /me/photo  (multipart form, field name: "file")
// DELETE /me/photo removes the stored photo.
func myPhotoHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		me := r.Context().Value(userIDKey).(int)

		if r.Method == http.MethodDelete {
			if err := removePhoto(db, me); err != nil {
				writeError(w, http.StatusInternalServerError, "remove_failed")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		maxBytes := cfg.MaxUploadMB << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes + (1 << 20)); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large_or_missing")
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing_file")
			return
		}
		defer f.Close()

		ext, err := sniffImageExt(f)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_image_type")
			return
		}

		filename, err := storeUpload(f, "photos", "profile", ext)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "save_failed")
			return
		}

		res, err := db.Exec(`
			UPDATE profiles
			SET image_filename = $1, updated_at = NOW() WHERE user_id = $2
		`, filename, me)
		if err != nil {
			// If the database fails, leave the file but report the error.
			writeError(w, http.StatusInternalServerError, "db_update_failed")
			return
		}
		aff, _ := res.RowsAffected()
		if aff == 0 {
			// No profile row yet; remove the orphaned file.
			_ = os.Remove(filepath.Join(cfg.UploadDir, "photos", filename))
			writeError(w, http.StatusConflict, "profile_required")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "image_filename": filename})
	})
}

func removePhoto(db *sql.DB, userID int) error {
	var filename sql.NullString
	err := db.QueryRow(`SELECT image_filename FROM profiles WHERE user_id = $1`, userID).Scan(&filename)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := db.Exec(`UPDATE profiles SET image_filename = NULL, updated_at = NOW() WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if filename.Valid && filename.String != "" {
		_ = os.Remove(filepath.Join(cfg.UploadDir, "photos", filename.String))
	}
	return nil
}

// GET /photos/{userID}
// Serves the stored profile photo, but only to the owner or to a viewer
// whose match score with the owner clears the visibility threshold; below
// it the redacted profile carries no photo.
func getUserPhotoHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "photos" {
			http.NotFound(w, r)
			return
		}
		ownerID, err := strconv.Atoi(parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}

		me := r.Context().Value(userIDKey).(int)

		owner, err := getProfileByUserID(db, ownerID)
		if err != nil || owner == nil || !owner.ImageFilename.Valid {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		if me != ownerID {
			viewer, err := getProfileByUserID(db, me)
			if err != nil || viewer == nil || !canViewFullProfile(viewer, owner) {
				writeError(w, http.StatusNotFound, "not_found")
				return
			}
		}

		http.ServeFile(w, r, filepath.Join(cfg.UploadDir, "photos", filepath.Base(owner.ImageFilename.String)))
	})
}

// GET /attachments/{messageID}
// Serves a message attachment to the two participants of that message only.
func getAttachmentHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "attachments" {
			http.NotFound(w, r)
			return
		}
		messageID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		me := r.Context().Value(userIDKey).(int)

		var fromID, toID int
		var filename sql.NullString
		err = db.QueryRow(`
			SELECT from_user_id, to_user_id, attachment_filename
			FROM messages WHERE id = $1
		`, messageID).Scan(&fromID, &toID, &filename)
		if err != nil || !filename.Valid {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if me != fromID && me != toID {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		http.ServeFile(w, r, filepath.Join(cfg.UploadDir, "messages", filepath.Base(filename.String)))
	})
}
