package repository

import (
	"context"
	"encoding/json"
	"sync"

	"sasselerator/internal/models"
	"sasselerator/internal/testutil"

	"github.com/stretchr/testify/suite"
)

// planRepositorySuite - общие проверки контракта PlanRepository.
// Конкретные наборы задают repo и очищают хранилище в SetupTest.
type planRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo PlanRepository
}

func (s *planRepositorySuite) TestCreateAndGetByID_RoundTrip() {
	doc := testutil.SampleDocument()

	created, err := s.repo.Create(s.ctx, "A scheduling tool for dentists", doc)
	s.Require().NoError(err)
	s.NotEmpty(created.ID)
	s.Equal("A scheduling tool for dentists", created.Idea)
	s.False(created.CreatedAt.IsZero())
	s.Equal(doc, created.Document)

	got, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, got.ID)
	s.Equal(doc, got.Document)
	s.True(created.CreatedAt.Equal(got.CreatedAt))
}

func (s *planRepositorySuite) TestCreate_MissingListsReadBackEmpty() {
	doc := testutil.SampleDocument()
	doc.MVPPlan.Tasks = nil
	doc.MVPPlan.InfrastructureCosts = nil
	doc.MVPPlan.Problems = nil
	doc.MVPPlan.Professionals = nil

	created, err := s.repo.Create(s.ctx, "Hand-written plan", doc)
	s.Require().NoError(err)

	for _, plan := range []*models.Plan{created, s.mustGet(created.ID), s.mustLatest()} {
		mvp := plan.Document.MVPPlan
		s.NotNil(mvp.Tasks)
		s.NotNil(mvp.InfrastructureCosts)
		s.NotNil(mvp.Problems)
		s.NotNil(mvp.Professionals)

		raw, err := json.Marshal(plan.Document.MVPPlan)
		s.Require().NoError(err)
		s.NotContains(string(raw), "null")
		s.Contains(string(raw), `"tasks":[]`)
	}
}

func (s *planRepositorySuite) mustGet(id string) *models.Plan {
	plan, err := s.repo.GetByID(s.ctx, id)
	s.Require().NoError(err)
	return plan
}

func (s *planRepositorySuite) mustLatest() *models.Plan {
	plan, err := s.repo.GetLatest(s.ctx)
	s.Require().NoError(err)
	return plan
}

func (s *planRepositorySuite) TestGetByID_NotFound() {
	_, err := s.repo.GetByID(s.ctx, "missing")
	s.ErrorIs(err, models.ErrNotFound)
	s.NotErrorIs(err, models.ErrStorage)
}

func (s *planRepositorySuite) TestGetAll_EmptyAndOrdered() {
	plans, err := s.repo.GetAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(plans)
	s.Empty(plans)

	_, err = s.repo.GetLatest(s.ctx)
	s.ErrorIs(err, models.ErrNotFound)

	var ids []string
	for _, idea := range []string{"first", "second", "third"} {
		p, err := s.repo.Create(s.ctx, idea, testutil.SampleDocument())
		s.Require().NoError(err)
		ids = append(ids, p.ID)
	}

	plans, err = s.repo.GetAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(plans, 3)
	for i := 1; i < len(plans); i++ {
		s.False(plans[i].CreatedAt.Before(plans[i-1].CreatedAt), "plans must be sorted by createdAt")
	}

	latest, err := s.repo.GetLatest(s.ctx)
	s.Require().NoError(err)
	s.Equal(plans[len(plans)-1].ID, latest.ID)
	s.ElementsMatch(ids, []string{plans[0].ID, plans[1].ID, plans[2].ID})
}

func (s *planRepositorySuite) TestUpdate_ReplacesDocument() {
	created, err := s.repo.Create(s.ctx, "idea", testutil.SampleDocument())
	s.Require().NoError(err)

	doc := testutil.SampleDocument()
	doc.BusinessCanvas.Channels = "Partnerships only"
	doc.MVPPlan.Tasks = doc.MVPPlan.Tasks[:2]
	doc.MVPPlan.Tasks[0].Completed = true

	updated, err := s.repo.Update(s.ctx, created.ID, doc)
	s.Require().NoError(err)
	s.Equal(doc, updated.Document)
	s.Equal("idea", updated.Idea)
	s.True(created.CreatedAt.Equal(updated.CreatedAt))
	s.False(updated.UpdatedAt.Before(created.UpdatedAt))

	got, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(doc, got.Document)
}

func (s *planRepositorySuite) TestUpdate_NotFound() {
	_, err := s.repo.Update(s.ctx, "missing", testutil.SampleDocument())
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *planRepositorySuite) TestDelete_ReportsAbsence() {
	created, err := s.repo.Create(s.ctx, "idea", testutil.SampleDocument())
	s.Require().NoError(err)

	removed, err := s.repo.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.repo.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.False(removed)

	removed, err = s.repo.Delete(s.ctx, "never-existed")
	s.Require().NoError(err)
	s.False(removed)

	_, err = s.repo.GetByID(s.ctx, created.ID)
	s.ErrorIs(err, models.ErrNotFound)
}

func (s *planRepositorySuite) TestConcurrentUpdates_LastWriteWins() {
	created, err := s.repo.Create(s.ctx, "idea", testutil.SampleDocument())
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := testutil.SampleDocument()
			doc.MVPPlan.Tasks[i].Completed = true
			_, err := s.repo.Update(s.ctx, created.ID, doc)
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	got, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	completed := 0
	for _, t := range got.Document.MVPPlan.Tasks {
		if t.Completed {
			completed++
		}
	}
	s.Equal(1, completed, "exactly one full-document write survives")
}

func (s *planRepositorySuite) TestPing() {
	s.NoError(s.repo.Ping(s.ctx))
}
