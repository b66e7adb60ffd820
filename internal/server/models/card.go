// Package models defines the board records persisted in the database and
// returned by the REST API. JSON names follow the FlowRev web client.
package models

import "github.com/dmitrijs2005/flowrev/internal/timex"

// MaxDescriptionLength is the capacity of cartoes.descricao, in characters.
const MaxDescriptionLength = 5000

// Card is one work item on the board.
type Card struct {
	ID int64 `json:"id"`
	// Title is the short text shown on the board.
	Title string `json:"titulo"`
	// Description is rich text (HTML from the editor).
	Description *string `json:"descricao"`
	// Column is the lane the card sits in, e.g. "nao-iniciado" or "feito".
	// Any string is accepted.
	Column   string      `json:"coluna"`
	DueDate  *timex.Date `json:"dataEntrega"`
	Assignee *string     `json:"responsavel"`
}
