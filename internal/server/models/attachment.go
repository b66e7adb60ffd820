package models

// Attachment is the metadata of a file uploaded to a card. The bytes live in
// the blob store under the physical name at the end of Location.
type Attachment struct {
	ID       int64  `json:"id"`
	FileName string `json:"nomeArquivo"`
	// Location is the on-disk path for the local store, s3://bucket/key for S3.
	Location  string `json:"caminhoNoDisco"`
	PublicURL string `json:"urlPublica"`
	CardID    int64  `json:"-"`
}
