package user

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/models"
	"DormBiz/internal/service/upload"
	"DormBiz/pkg/logger"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	users   map[uuid.UUID]*models.User
	objects map[string]bool
}

func (m *memUsers) UserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, app_errors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, app_errors.ErrUserNotFound
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Campus != nil {
		u.Campus = *upd.Campus
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetAvatar(_ context.Context, id uuid.UUID, key string) error {
	m.users[id].AvatarKey = key
	return nil
}

func (m *memUsers) Upload(_ context.Context, ownerID uuid.UUID, f upload.File) (string, error) {
	key := ownerID.String() + "/" + f.Name
	m.objects[key] = true
	return key, nil
}

func (m *memUsers) URL(_ context.Context, key string) (string, error) {
	return "https://files.test/" + key, nil
}

func (m *memUsers) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func setup() (*UserService, *memUsers, uuid.UUID) {
	id := uuid.New()
	m := &memUsers{
		users:   map[uuid.UUID]*models.User{id: {ID: id, Username: "ada", Email: "ada@campus.edu", Roles: []string{models.StudentRole}}},
		objects: make(map[string]bool),
	}
	return NewUserService(logger.NewDiscard(), m, m, upload.MaxImageBytes), m, id
}

func TestUpdateProfile(t *testing.T) {
	s, _, id := setup()
	campus := "  North  "
	bio := "CS sophomore"

	p, err := s.UpdateProfile(context.Background(), id, models.ProfileUpdate{Campus: &campus, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "North", p.Campus)
	assert.Equal(t, bio, p.Bio)
	assert.Empty(t, p.AvatarURL)

	_, err = s.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, app_errors.ErrUserNotFound)
}

func TestUploadAvatar_ReplacesPrevious(t *testing.T) {
	s, m, id := setup()
	ctx := context.Background()

	_, err := s.UploadAvatar(ctx, id, upload.File{Name: "me.png", Reader: strings.NewReader("x"), Size: upload.MaxImageBytes + 1})
	assert.ErrorIs(t, err, app_errors.ErrFileSize)

	_, err = s.UploadAvatar(ctx, id, upload.File{Name: "me.png", Reader: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)
	url, err := s.UploadAvatar(ctx, id, upload.File{Name: "me2.jpg", Reader: strings.NewReader("x"), Size: 1})
	require.NoError(t, err)

	assert.Len(t, m.objects, 1)
	p, err := s.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, url, p.AvatarURL)
}
