// Package domain define contratos e tipos de domínio do despachante de documentos:
// o documento e suas linhas de produto, a submissão que percorre o caminho de
// retentativa, a quota de admissão e os colaboradores (serializer, transport,
// stats, status).
//
// Este pacote não depende de net/http nem de implementações concretas.
package domain
