package service_test

import (
	"context"
	"testing"

	"playzone/internal/dto"
	"playzone/internal/model"
	"playzone/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserMe_ProvisionsOnFirstCall(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewUserService(repo)
	p := service.Principal{ID: uuid.New(), Email: "desk@venue.test", Role: model.RoleStaff}

	me, err := svc.Me(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "desk@venue.test", me.Email)
	assert.Len(t, repo.users, 1)

	again, err := svc.Me(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, me.ID, again.ID)
	assert.Len(t, repo.users, 1)
}

func TestUserUpdateMe_EmailTaken(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewUserService(repo)
	a := service.Principal{ID: uuid.New(), Email: "a@venue.test", Role: model.RoleAdmin}
	b := service.Principal{ID: uuid.New(), Email: "b@venue.test", Role: model.RoleStaff}
	_, err := svc.Me(context.Background(), a)
	require.NoError(t, err)
	_, err = svc.Me(context.Background(), b)
	require.NoError(t, err)

	_, err = svc.UpdateMe(context.Background(), b, dto.UpdateMeRequest{Email: "a@venue.test"})
	assert.ErrorIs(t, err, service.ErrEmailTaken)

	got, err := svc.UpdateMe(context.Background(), b, dto.UpdateMeRequest{Email: "bee@venue.test"})
	require.NoError(t, err)
	assert.Equal(t, "bee@venue.test", got.Email)
}
