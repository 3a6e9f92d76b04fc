package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionID string

func NewSubmissionID() SubmissionID {
	return SubmissionID(uuid.New().String())
}

// Submission é o par (documento, assinatura) que percorre admissão, retentativa
// e envio. É passado por valor; Attempt é incrementado na cópia a cada tentativa
// de admissão e o documento nunca é alterado.
type Submission struct {
	ID          SubmissionID
	Document    Document
	Signature   string
	Attempt     int
	SubmittedAt time.Time
}

// NewSubmission cria uma submissão com ID novo e uma cópia própria do documento.
func NewSubmission(doc Document, signature string) Submission {
	return Submission{
		ID:          NewSubmissionID(),
		Document:    doc.Clone(),
		Signature:   signature,
		SubmittedAt: time.Now(),
	}
}

// State é o estado observável de uma submissão.
type State string

const (
	StatePending   State = "pending"
	StateDeferred  State = "deferred"
	StateDelivered State = "delivered"
	StateFailed    State = "failed"
	StateAbandoned State = "abandoned"
)

// Terminal indica se a submissão não vai mais mudar de estado.
func (s State) Terminal() bool {
	return s == StateDelivered || s == StateFailed || s == StateAbandoned
}

type Status struct {
	ID         SubmissionID `json:"id"`
	State      State        `json:"state"`
	Attempts   int          `json:"attempts"`
	PayloadCID string       `json:"payload_cid,omitempty"`
	HTTPStatus int          `json:"http_status,omitempty"`
	LastError  string       `json:"last_error,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
