package user

import (
	"DormBiz/internal/models"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"strings"

	"github.com/google/uuid"
)

type userRepo interface {
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error)
	SetAvatar(ctx context.Context, id uuid.UUID, objectKey string) error
}

type avatarRepo interface {
	Upload(ctx context.Context, ownerID uuid.UUID, f upload.File) (objectKey string, err error)
	URL(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

type UserService struct {
	log         logger.Log
	users       userRepo
	avatars     avatarRepo
	uploadLimit int64
}

func NewUserService(l logger.Log, u userRepo, a avatarRepo, uploadLimit int64) *UserService {
	return &UserService{log: l, users: u, avatars: a, uploadLimit: uploadLimit}
}

func (s *UserService) profile(ctx context.Context, u *models.User) *models.Profile {
	p := &models.Profile{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Bio:      u.Bio,
		Campus:   u.Campus,
		Roles:    u.Roles,
	}
	if u.AvatarKey != "" {
		url, err := s.avatars.URL(ctx, u.AvatarKey)
		if err != nil {
			s.log.ErrorErr("failed to presign avatar", err, "user_id", u.ID)
		}
		p.AvatarURL = url
	}
	return p
}

func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u), nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.Profile, error) {
	for _, f := range []*string{upd.FullName, upd.Bio, upd.Campus} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
	u, err := s.users.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, u), nil
}

// UploadAvatar replaces the user's avatar and returns its presigned URL.
func (s *UserService) UploadAvatar(ctx context.Context, id uuid.UUID, f upload.File) (string, error) {
	if err := upload.CheckImage(&f, s.uploadLimit); err != nil {
		return "", err
	}
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return "", err
	}

	key, err := s.avatars.Upload(ctx, id, f)
	if err != nil {
		s.log.ErrorErr("failed to upload avatar", err)
		return "", err
	}
	if err := s.users.SetAvatar(ctx, id, key); err != nil {
		return "", err
	}
	if u.AvatarKey != "" && u.AvatarKey != key {
		if err := s.avatars.Delete(ctx, u.AvatarKey); err != nil {
			s.log.ErrorErr("failed to delete previous avatar", err, "user_id", id)
		}
	}
	return s.avatars.URL(ctx, key)
}
