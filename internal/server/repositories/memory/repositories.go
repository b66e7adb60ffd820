package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/server/models"
)

func copyCard(c *models.Card) *models.Card {
	out := *c
	if c.Description != nil {
		d := *c.Description
		out.Description = &d
	}
	if c.DueDate != nil {
		d := *c.DueDate
		out.DueDate = &d
	}
	if c.Assignee != nil {
		a := *c.Assignee
		out.Assignee = &a
	}
	return &out
}

func sortedValues[T any](m map[int64]*T, keep func(*T) bool, dup func(*T) *T) []*T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, cmp.Compare[int64])

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, dup(m[id]))
	}
	return out
}

// Cards is the in-memory cards.Repository.
type Cards struct{ view }

func (r *Cards) GetAll(_ context.Context) ([]*models.Card, error) {
	defer r.rlock()()
	return sortedValues(r.s.data.cards, func(*models.Card) bool { return true }, copyCard), nil
}

func (r *Cards) GetByID(_ context.Context, id int64) (*models.Card, error) {
	defer r.rlock()()
	c, ok := r.s.data.cards[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyCard(c), nil
}

func (r *Cards) Save(_ context.Context, card *models.Card) error {
	if card.Description != nil && utf8.RuneCountInString(*card.Description) > models.MaxDescriptionLength {
		return fmt.Errorf("%w: descricao exceeds %d characters", common.ErrorValidation, models.MaxDescriptionLength)
	}

	defer r.lock()()
	data := &r.s.data
	if card.ID == 0 {
		data.lastCardID++
		card.ID = data.lastCardID
	} else if _, ok := data.cards[card.ID]; !ok {
		return common.ErrorNotFound
	}
	data.cards[card.ID] = copyCard(card)
	return nil
}

// DeleteByID removes the card together with its attachments and comments.
func (r *Cards) DeleteByID(_ context.Context, id int64) error {
	defer r.lock()()
	data := &r.s.data
	if _, ok := data.cards[id]; !ok {
		return common.ErrorNotFound
	}
	delete(data.cards, id)
	for k, a := range data.attachments {
		if a.CardID == id {
			delete(data.attachments, k)
		}
	}
	for k, c := range data.comments {
		if c.CardID == id {
			delete(data.comments, k)
		}
	}
	return nil
}

// Attachments is the in-memory attachments.Repository.
type Attachments struct{ view }

func copyAttachment(a *models.Attachment) *models.Attachment {
	out := *a
	return &out
}

func (r *Attachments) Create(_ context.Context, a *models.Attachment) error {
	defer r.lock()()
	data := &r.s.data
	if _, ok := data.cards[a.CardID]; !ok {
		return common.ErrorNotFound
	}
	data.lastAttachmentID++
	a.ID = data.lastAttachmentID
	data.attachments[a.ID] = copyAttachment(a)
	return nil
}

func (r *Attachments) FindByCardID(_ context.Context, cardID int64) ([]*models.Attachment, error) {
	defer r.rlock()()
	keep := func(a *models.Attachment) bool { return a.CardID == cardID }
	return sortedValues(r.s.data.attachments, keep, copyAttachment), nil
}

func (r *Attachments) DeleteByCardID(_ context.Context, cardID int64) error {
	defer r.lock()()
	for k, a := range r.s.data.attachments {
		if a.CardID == cardID {
			delete(r.s.data.attachments, k)
		}
	}
	return nil
}

// Comments is the in-memory comments.Repository.
type Comments struct{ view }

func copyComment(c *models.Comment) *models.Comment {
	out := *c
	return &out
}

func (r *Comments) Create(_ context.Context, c *models.Comment) error {
	defer r.lock()()
	data := &r.s.data
	if _, ok := data.cards[c.CardID]; !ok {
		return common.ErrorNotFound
	}
	data.lastCommentID++
	c.ID = data.lastCommentID
	data.comments[c.ID] = copyComment(c)
	return nil
}

func (r *Comments) FindByCardID(_ context.Context, cardID int64) ([]*models.Comment, error) {
	defer r.rlock()()
	keep := func(c *models.Comment) bool { return c.CardID == cardID }
	return sortedValues(r.s.data.comments, keep, copyComment), nil
}

func (r *Comments) DeleteByCardID(_ context.Context, cardID int64) error {
	defer r.lock()()
	for k, c := range r.s.data.comments {
		if c.CardID == cardID {
			delete(r.s.data.comments, k)
		}
	}
	return nil
}
