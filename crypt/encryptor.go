package crypt

import "github.com/pdfgraph/pdfgraph/model"

// Encryptor applies the standard security handler on the write side: the
// mirror image of Decryptor, dispatching by crypt-filter method instead of
// being RC4-only. Grounded on the teacher's EncryptionStandard.crypt
// (model/encryption.go), which only ever encrypts RC4; this generalizes it
// to also cover CFMAESV2/CFMAESV3/CFMIdentity.
type Encryptor struct {
	state  *model.EncryptionState
	stmCFM model.CryptFilterMethod
	strCFM model.CryptFilterMethod
}

// NewEncryptor builds an Encryptor from an already-populated
// EncryptionState (FileKey set, /StmF and /StrF resolved).
func NewEncryptor(state *model.EncryptionState) *Encryptor {
	e := &Encryptor{state: state}
	if state.V < 4 {
		e.stmCFM, e.strCFM = model.CFMRC4, model.CFMRC4
		return e
	}
	e.stmCFM = cfmFor(state, state.StmF)
	e.strCFM = cfmFor(state, state.StrF)
	return e
}

// EncryptStream encrypts a stream's content for id.
func (e *Encryptor) EncryptStream(id model.ObjectId, data []byte) ([]byte, error) {
	return e.encrypt(e.stmCFM, id, data)
}

// EncryptString encrypts a string's bytes for id.
func (e *Encryptor) EncryptString(id model.ObjectId, data []byte) ([]byte, error) {
	return e.encrypt(e.strCFM, id, data)
}

func (e *Encryptor) encrypt(cfm model.CryptFilterMethod, id model.ObjectId, data []byte) ([]byte, error) {
	switch cfm {
	case model.CFMIdentity:
		return data, nil
	case model.CFMAESV3:
		return EncryptAESCBC(e.state.FileKey, data)
	case model.CFMAESV2:
		return EncryptAESCBC(ObjectKey(e.state.FileKey, id, true), data)
	default:
		return DecryptRC4(ObjectKey(e.state.FileKey, id, false), data) // RC4 is an involution
	}
}
