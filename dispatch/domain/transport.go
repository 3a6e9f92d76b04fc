package domain

import "context"

// Serializer converte documento + assinatura no payload do wire.
// Deve ser puro: entradas iguais produzem bytes iguais.
type Serializer interface {
	Serialize(doc Document, signature string) ([]byte, error)
}

type Response struct {
	StatusCode int
	Body       []byte
}

// Transport executa a chamada de rede. Respostas fora de 2xx são reportadas
// como *StatusError.
type Transport interface {
	Send(ctx context.Context, url string, body []byte) (Response, error)
}
