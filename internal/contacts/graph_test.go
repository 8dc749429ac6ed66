package contacts

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/hongminglow/spamid-be/internal/apperr"
	"github.com/hongminglow/spamid-be/internal/identity"
	"github.com/hongminglow/spamid-be/internal/models"
	"github.com/hongminglow/spamid-be/internal/storage/memory"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (plainHasher) Verify(password, hash string) bool    { return hash == "hashed:"+password }

type GraphSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	resolver *identity.Resolver
	graph    *Graph
}

func TestGraphSuite(t *testing.T) {
	suite.Run(t, new(GraphSuite))
}

func (s *GraphSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.resolver = identity.NewResolver(s.store, plainHasher{}, nil, nil)
	s.graph = NewGraph(s.store, s.resolver, nil, nil)
}

func (s *GraphSuite) user(phone, name string) models.Person {
	p, err := s.resolver.Register(s.ctx, identity.RegisterInput{PhoneNumber: phone, Name: name, Password: "password-123"})
	s.Require().NoError(err)
	return p
}

func (s *GraphSuite) TestAddCreatesPlaceholder() {
	owner := s.user("+15551000", "owner")

	edge, err := s.graph.Add(s.ctx, owner, "+15551001", "Plumber")
	s.Require().NoError(err)
	s.Equal(owner.ID, edge.OwnerID)
	s.Equal("Plumber", edge.Name)

	target, err := s.store.FindPersonByPhone(s.ctx, "+15551001")
	s.Require().NoError(err)
	s.Equal(edge.TargetID, target.ID)
	s.Equal(models.TypeContact, target.Type)
	s.False(target.HasCredential())
}

func (s *GraphSuite) TestAddKeepsExistingUser() {
	owner := s.user("+15551100", "owner")
	target := s.user("+15551101", "Alice")

	edge, err := s.graph.Add(s.ctx, owner, target.PhoneNumber, "Ally")
	s.Require().NoError(err)
	s.Equal(target.ID, edge.TargetID)

	stored, err := s.store.FindPersonByID(s.ctx, target.ID)
	s.Require().NoError(err)
	s.Equal("Alice", stored.DisplayName())
	s.Equal(models.TypeUser, stored.Type)
	s.Equal(target.PasswordHash, stored.PasswordHash)
}

func (s *GraphSuite) TestDuplicateContact() {
	owner := s.user("+15551200", "owner")
	other := s.user("+15551201", "other")

	_, err := s.graph.Add(s.ctx, owner, "+15551202", "Mum")
	s.Require().NoError(err)

	_, err = s.graph.Add(s.ctx, owner, "+15551202", "Mother")
	s.ErrorIs(err, apperr.ErrDuplicateContact)

	_, err = s.graph.Add(s.ctx, other, "+15551202", "Auntie")
	s.NoError(err, "distinct owners may save the same number")
}

func (s *GraphSuite) TestConcurrentDuplicateAddPersistsOneEdge() {
	owner := s.user("+15551300", "owner")

	const workers = 20
	var (
		ok  atomic.Int32
		dup atomic.Int32
		g   errgroup.Group
	)
	for range workers {
		g.Go(func() error {
			_, err := s.graph.Add(s.ctx, owner, "+15551301", "Racer")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperr.ErrDuplicateContact):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(g.Wait())
	s.Equal(int32(1), ok.Load())
	s.Equal(int32(workers-1), dup.Load())

	list, err := s.graph.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *GraphSuite) TestListShowsOwnerAliasInInsertionOrder() {
	owner := s.user("+15551400", "owner")
	friend := s.user("+15551401", "Robert")

	_, err := s.graph.Add(s.ctx, owner, friend.PhoneNumber, "Bobby")
	s.Require().NoError(err)
	_, err = s.graph.Add(s.ctx, owner, "+15551402", "Dentist")
	s.Require().NoError(err)
	_, err = s.graph.Add(s.ctx, owner, "+15551403", "Gym")
	s.Require().NoError(err)

	list, err := s.graph.List(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("Bobby", list[0].Name)
	s.Equal(friend.PhoneNumber, list[0].PhoneNumber)
	s.Equal("Dentist", list[1].Name)
	s.Equal("Gym", list[2].Name)

	empty, err := s.graph.List(s.ctx, friend)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *GraphSuite) TestValidation() {
	owner := s.user("+15551500", "owner")

	_, err := s.graph.Add(s.ctx, owner, "", "Nobody")
	s.ErrorIs(err, apperr.ErrValidation)

	_, err = s.graph.Add(s.ctx, owner, "+15551501", "  ")
	s.ErrorIs(err, apperr.ErrValidation)
}

func (s *GraphSuite) TestPlaceholderNameComesFromFirstAliasOnly() {
	first := s.user("+15551900", "first")
	second := s.user("+15551901", "second")

	_, err := s.graph.Add(s.ctx, first, "+15551902", "Landlord")
	s.Require().NoError(err)
	_, err = s.graph.Add(s.ctx, second, "+15551902", "Mr Smith")
	s.Require().NoError(err)

	target, err := s.store.FindPersonByPhone(s.ctx, "+15551902")
	s.Require().NoError(err)
	s.Equal(models.TypeContact, target.Type)
	s.Equal("Landlord", target.DisplayName())

	list, err := s.graph.List(s.ctx, second)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Mr Smith", list[0].Name)

	// Registering replaces the placeholder name with the user's own.
	registered, err := s.resolver.Register(s.ctx, identity.RegisterInput{PhoneNumber: "+15551902", Name: "Sarah", Password: "password-123"})
	s.Require().NoError(err)
	s.Equal(target.ID, registered.ID)
	s.Equal("Sarah", registered.DisplayName())

	list, err = s.graph.List(s.ctx, first)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Landlord", list[0].Name)
}
