package crypt

import "github.com/pdfgraph/pdfgraph/model"

// Decryptor applies a document's standard security handler to individual
// strings and streams once the file key has been recovered by
// Authenticate. Grounded on the teacher's EncryptionStandard.crypt, but
// split by crypt-filter method (RC4 / AES-128 / AES-256 / Identity)
// instead of being RC4-only, and made symmetric (stream ciphers decrypt
// with the same operation that encrypts, but AES needs distinct CBC
// directions).
type Decryptor struct {
	state  *model.EncryptionState
	stmCFM model.CryptFilterMethod
	strCFM model.CryptFilterMethod
}

// NewDecryptor builds a Decryptor from an authenticated EncryptionState
// (state.FileKey must already be populated, see Authenticate).
func NewDecryptor(state *model.EncryptionState) *Decryptor {
	d := &Decryptor{state: state}
	if state.V < 4 {
		// V1/V2: always RC4, no crypt filter dictionary involved.
		d.stmCFM, d.strCFM = model.CFMRC4, model.CFMRC4
		return d
	}
	d.stmCFM = cfmFor(state, state.StmF)
	d.strCFM = cfmFor(state, state.StrF)
	return d
}

func cfmFor(state *model.EncryptionState, name model.Name) model.CryptFilterMethod {
	if name == "Identity" || name == "" {
		return model.CFMIdentity
	}
	if cf, ok := state.CF[name]; ok {
		return cf.CFM
	}
	return model.CFMRC4
}

// DecryptStream decrypts a stream's raw content, addressed by id.
func (d *Decryptor) DecryptStream(id model.ObjectId, data []byte) ([]byte, error) {
	return d.decrypt(d.stmCFM, id, data)
}

// DecryptString decrypts a string literal's raw bytes, addressed by the
// object id it was found in (strings do not carry their own id).
func (d *Decryptor) DecryptString(id model.ObjectId, data []byte) ([]byte, error) {
	return d.decrypt(d.strCFM, id, data)
}

func (d *Decryptor) decrypt(cfm model.CryptFilterMethod, id model.ObjectId, data []byte) ([]byte, error) {
	switch cfm {
	case model.CFMIdentity:
		return data, nil
	case model.CFMAESV3:
		return DecryptAESCBC(d.state.FileKey, data)
	case model.CFMAESV2:
		return DecryptAESCBC(ObjectKey(d.state.FileKey, id, true), data)
	default: // CFMRC4 and the V<4 default
		return DecryptRC4(ObjectKey(d.state.FileKey, id, false), data)
	}
}
