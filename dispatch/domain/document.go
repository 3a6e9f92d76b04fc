package domain

// Description identifica o participante que registra o documento.
type Description struct {
	ParticipantInn string `json:"participantInn"`
}

// Product é uma linha de produto do documento. Todos os campos são strings
// e são enviados mesmo quando vazios.
type Product struct {
	CertificateDocument       string `json:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date"`
	CertificateDocumentNumber string `json:"certificate_document_number"`
	OwnerInn                  string `json:"owner_inn"`
	ProducerInn               string `json:"producer_inn"`
	ProductionDate            string `json:"production_date"`
	TnvedCode                 string `json:"tnved_code"`
	UitCode                   string `json:"uit_code"`
	UituCode                  string `json:"uitu_code"`
}

// Document é o documento submetido ao registry.
//
// A ordem dos campos é a ordem do wire format; não reordene.
type Document struct {
	Description    Description `json:"description"`
	DocID          string      `json:"doc_id"`
	DocStatus      string      `json:"doc_status"`
	DocType        string      `json:"doc_type"`
	ImportRequest  bool        `json:"importRequest"`
	OwnerInn       string      `json:"owner_inn"`
	ParticipantInn string      `json:"participant_inn"`
	ProducerInn    string      `json:"producer_inn"`
	ProductionDate string      `json:"production_date"`
	ProductionType string      `json:"production_type"`
	Products       []Product   `json:"products"`
	RegDate        string      `json:"reg_date"`
	RegNumber      string      `json:"reg_number"`
}

// Clone devolve uma cópia que não compartilha o slice de produtos.
// Products nil vira slice vazio, para que "products" nunca saia como null.
func (d Document) Clone() Document {
	out := d
	out.Products = make([]Product, len(d.Products))
	copy(out.Products, d.Products)
	return out
}

// Envelope é o corpo enviado ao registry (e aceito pelo intake HTTP).
type Envelope struct {
	Document  Document `json:"document"`
	Signature string   `json:"signature"`
}
