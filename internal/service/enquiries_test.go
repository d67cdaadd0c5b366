package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

func TestEnquiry_ProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	f.yishun(t)

	draft, err := f.engine.CreateEnquiry(f.ctx, married, "Yishun-1", "Is parking included?", true)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, draft.Status)

	_, err = f.engine.EditEnquiry(f.ctx, single40, draft.ID, "hijack")
	assert.ErrorIs(t, err, model.ErrNotOwner)

	edited, err := f.engine.EditEnquiry(f.ctx, married, draft.ID, "Is season parking included?")
	require.NoError(t, err)
	assert.Equal(t, "Is season parking included?", edited.Content)

	_, err = f.engine.ReplyEnquiry(f.ctx, officer, draft.ID, "Yes")
	assert.ErrorIs(t, err, model.ErrIllegalTransition)

	_, err = f.engine.SubmitEnquiry(f.ctx, married, draft.ID)
	require.NoError(t, err)

	_, err = f.engine.ReplyEnquiry(f.ctx, otherMgr, draft.ID, "Yes")
	assert.ErrorIs(t, err, model.ErrAuthorization)

	replied, err := f.engine.ReplyEnquiry(f.ctx, officer, draft.ID, "Yes")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReplied, replied.Status)
	assert.Equal(t, officer.NRIC, replied.Replier)

	_, err = f.engine.EditEnquiry(f.ctx, married, draft.ID, "one more thing")
	assert.ErrorIs(t, err, model.ErrIllegalTransition)
	_, err = f.engine.DeleteEnquiry(f.ctx, married, draft.ID)
	assert.ErrorIs(t, err, model.ErrIllegalTransition)
}

func TestEnquiry_GeneralAnsweredByAnyManager(t *testing.T) {
	f := newFixture(t)

	enq, err := f.engine.CreateEnquiry(f.ctx, single40, "", "When is the next launch?", false)
	require.NoError(t, err)
	assert.True(t, enq.General())
	assert.Equal(t, model.StatusSubmitted, enq.Status)

	_, err = f.engine.ReplyEnquiry(f.ctx, officer, enq.ID, "Soon")
	assert.ErrorIs(t, err, model.ErrAuthorization)

	replied, err := f.engine.ReplyEnquiry(f.ctx, otherMgr, enq.ID, "In May")
	require.NoError(t, err)
	assert.Equal(t, "In May", replied.ReplyContent)
}

func TestEnquiry_CreateRules(t *testing.T) {
	f := newFixture(t)
	f.yishun(t)

	_, err := f.engine.CreateEnquiry(f.ctx, manager, "", "hello", false)
	assert.ErrorIs(t, err, model.ErrAuthorization)

	_, err = f.engine.CreateEnquiry(f.ctx, married, "Nowhere", "hello", false)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.engine.CreateEnquiry(f.ctx, married, "Yishun-1", "   ", false)
	assert.ErrorIs(t, err, model.ErrBlankContent)
}

func TestListEnquiries(t *testing.T) {
	f := newFixture(t)
	f.yishun(t)

	own, err := f.engine.CreateEnquiry(f.ctx, married, "Yishun-1", "Q1", false)
	require.NoError(t, err)
	_, err = f.engine.CreateEnquiry(f.ctx, single40, "", "Q2", false)
	require.NoError(t, err)
	deleted, err := f.engine.CreateEnquiry(f.ctx, married, "", "Q3", false)
	require.NoError(t, err)
	closed, err := f.engine.DeleteEnquiry(f.ctx, married, deleted.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, closed.Status)

	mine, err := f.engine.ListEnquiries(f.ctx, married)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	handled, err := f.engine.ListEnquiries(f.ctx, officer)
	require.NoError(t, err)
	require.Len(t, handled, 1)
	assert.Equal(t, own.ID, handled[0].ID)

	all, err := f.engine.ListEnquiries(f.ctx, manager)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
