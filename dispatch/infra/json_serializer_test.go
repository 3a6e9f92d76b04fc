package infra

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Breadlyy/honestSign/dispatch/domain"
)

func TestJSONSerializer_EmptyDocumentShape(t *testing.T) {
	body, err := JSONSerializer{}.Serialize(domain.Document{}, "dummy_signature")
	require.NoError(t, err)

	want := `{"document":{"description":{"participantInn":""},"doc_id":"","doc_status":"","doc_type":"",` +
		`"importRequest":false,"owner_inn":"","participant_inn":"","producer_inn":"","production_date":"",` +
		`"production_type":"","products":[],"reg_date":"","reg_number":""},"signature":"dummy_signature"}`
	require.Equal(t, want, string(body))
}

func TestJSONSerializer_EmptyProductsIsArrayNotNull(t *testing.T) {
	for _, doc := range []domain.Document{{Products: nil}, {Products: []domain.Product{}}} {
		body, err := JSONSerializer{}.Serialize(doc, "s")
		require.NoError(t, err)
		require.Contains(t, string(body), `"products":[]`)
		require.NotContains(t, string(body), `"products":null`)
	}
}

func TestJSONSerializer_ProductFieldOrder(t *testing.T) {
	doc := domain.Document{
		DocID:         "doc-1",
		ImportRequest: true,
		Products: []domain.Product{{
			CertificateDocument:       "CONFORMITY_CERTIFICATE",
			CertificateDocumentDate:   "2026-01-02",
			CertificateDocumentNumber: "N-1",
			OwnerInn:                  "7700000000",
			ProducerInn:               "7800000000",
			ProductionDate:            "2026-01-01",
			TnvedCode:                 "6401100000",
			UitCode:                   "010461111111111121",
			UituCode:                  "",
		}},
	}
	body, err := JSONSerializer{}.Serialize(doc, "sig")
	require.NoError(t, err)

	s := string(body)
	order := []string{
		`"certificate_document"`, `"certificate_document_date"`, `"certificate_document_number"`,
		`"owner_inn"`, `"producer_inn"`, `"production_date"`, `"tnved_code"`, `"uit_code"`, `"uitu_code"`,
	}
	products := s[strings.Index(s, `"products"`):]
	last := -1
	for _, key := range order {
		idx := strings.Index(products, key)
		require.Greater(t, idx, last, "field %s out of order", key)
		last = idx
	}
	require.Contains(t, s, `"importRequest":true`)
	require.True(t, strings.HasSuffix(s, `"signature":"sig"}`))
}

func genDocument() *rapid.Generator[domain.Document] {
	str := rapid.StringN(0, 12, -1)
	return rapid.Custom(func(t *rapid.T) domain.Document {
		n := rapid.IntRange(0, 4).Draw(t, "products")
		var products []domain.Product
		if n > 0 || rapid.Bool().Draw(t, "emptyNotNil") {
			products = make([]domain.Product, n)
		}
		for i := range products {
			products[i] = domain.Product{
				OwnerInn:  str.Draw(t, "ownerInn"),
				TnvedCode: str.Draw(t, "tnved"),
				UitCode:   str.Draw(t, "uit"),
			}
		}
		return domain.Document{
			Description:   domain.Description{ParticipantInn: str.Draw(t, "participant")},
			DocID:         str.Draw(t, "docID"),
			DocType:       str.Draw(t, "docType"),
			ImportRequest: rapid.Bool().Draw(t, "import"),
			Products:      products,
			RegNumber:     str.Draw(t, "regNumber"),
		}
	})
}

func TestJSONSerializer_IsDeterministicAndPure(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		doc := genDocument().Draw(rt, "doc")
		sig := rapid.String().Draw(rt, "signature")
		before := doc.Clone()

		a, err := JSONSerializer{}.Serialize(doc, sig)
		if err != nil {
			rt.Fatalf("serialize: %v", err)
		}
		b, err := JSONSerializer{}.Serialize(doc, sig)
		if err != nil {
			rt.Fatalf("serialize: %v", err)
		}
		if string(a) != string(b) {
			rt.Fatalf("serialization not byte-identical:\n%s\n%s", a, b)
		}
		if PayloadCID(a) != PayloadCID(b) {
			rt.Fatalf("payload CID differs for identical bytes")
		}
		if len(doc.Products) != len(before.Products) {
			rt.Fatalf("serialize mutated the document")
		}
		for i := range doc.Products {
			if doc.Products[i] != before.Products[i] {
				rt.Fatalf("serialize mutated product %d", i)
			}
		}
	})
}

func TestPayloadCID_IsCIDv1Raw(t *testing.T) {
	id := PayloadCID([]byte(`{"document":{}}`))
	require.True(t, strings.HasPrefix(id, "bafkrei"), "got %s", id)
	require.NotEqual(t, id, PayloadCID([]byte(`{"document":{"doc_id":"x"}}`)))
}
