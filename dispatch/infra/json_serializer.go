package infra

import (
	"encoding/json"
	"fmt"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

// JSONSerializer gera o corpo {"document": ..., "signature": ...}.
//
// A ordem dos campos segue a declaração dos structs em domain, então a saída é
// determinística. Products nil sai como [] e nunca como null.
type JSONSerializer struct{}

var _ domain.Serializer = JSONSerializer{}

func (JSONSerializer) Serialize(doc domain.Document, signature string) ([]byte, error) {
	body, err := json.Marshal(domain.Envelope{Document: doc.Clone(), Signature: signature})
	if err != nil {
		return nil, fmt.Errorf("serialize document %q: %w", doc.DocID, err)
	}
	return body, nil
}
