package infra

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// PayloadCID retorna o CIDv1 (codec raw, multihash sha2-256) do payload enviado.
// Serve de impressão digital estável do que foi de fato para o registry.
func PayloadCID(body []byte) string {
	sum, err := multihash.Sum(body, multihash.SHA2_256, -1)
	if err != nil {
		// com SHA2_256 e tamanho -1 isso não acontece
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}
