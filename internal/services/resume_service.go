package services

import (
	"bytes"
	"context"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/storage"
	"github.com/yoockh/jobboard/internal/utils"
)

const MaxResumeBytes = 10 << 20

var pdfMagic = []byte("%PDF-")

type ResumeUpload struct {
	URL        string `json:"resume_url"`
	ObjectName string `json:"object_name"`
	Size       int64  `json:"size"`
}

type ResumeService interface {
	Upload(ctx context.Context, actorID uint, fileName string, size int64, r io.Reader) (*ResumeUpload, error)
}

type resumeService struct {
	users    pgrepo.UserRepository
	uploader storage.Uploader
}

// NewResumeService accepts a nil uploader; uploads then fail as unavailable.
func NewResumeService(users pgrepo.UserRepository, uploader storage.Uploader) ResumeService {
	return &resumeService{users: users, uploader: uploader}
}

func (s *resumeService) Upload(ctx context.Context, actorID uint, fileName string, size int64, r io.Reader) (*ResumeUpload, error) {
	const op = "ResumeService.Upload"

	actor, err := loadActor(ctx, s.users, op, actorID)
	if err != nil {
		return nil, err
	}
	if actor.IsRecruiter {
		return nil, forbidden(op, "only job seekers upload resumes")
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "file storage is not configured", nil)
	}
	if !strings.EqualFold(path.Ext(fileName), ".pdf") {
		return nil, invalid(op, "resume must be a .pdf file")
	}
	if size <= 0 || size > MaxResumeBytes {
		return nil, invalid(op, "resume must be between 1 byte and 10MB")
	}

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(r, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return nil, invalid(op, "file is not a PDF document")
	}
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), r), MaxResumeBytes)

	object := "resumes/" + strconv.FormatUint(uint64(actor.ID), 10) + "/" + uuid.NewString() + ".pdf"
	url, err := s.uploader.Upload(ctx, object, "application/pdf", body)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload file", err)
	}
	return &ResumeUpload{URL: url, ObjectName: object, Size: size}, nil
}
