// Package crypto はパスワードのハッシュ化と検証を提供する。
//
// Argon2idを使用し、PHC形式（$argon2id$v=..$m=..,t=..,p=..$salt$hash）で
// エンコードする。パラメータはハッシュ文字列自体に埋め込まれるため、
// 既定値を変更しても既存ハッシュの検証は壊れない。
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params はArgon2idのコスト係数を定義する。
type Params struct {
	Memory      uint32 // メモリ使用量（KB）
	Iterations  uint32 // 反復回数
	Parallelism uint8  // 並列度
	SaltLength  uint32 // ソルト長（バイト）
	KeyLength   uint32 // ハッシュ長（バイト）
}

// DefaultParams は小規模コンテナ（0.5〜1コア）向けに調整した既定値。
var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword はパスワードをArgon2idでハッシュ化し、PHC形式で返す。
// ソルトは毎回ランダムに生成されるため、同一パスワードでも異なるハッシュになる。
func HashPassword(password string) (string, error) {
	salt := make([]byte, DefaultParams.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		DefaultParams.Iterations,
		DefaultParams.Memory,
		DefaultParams.Parallelism,
		DefaultParams.KeyLength,
	)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, DefaultParams.Memory, DefaultParams.Iterations, DefaultParams.Parallelism,
		b64Salt, b64Hash,
	), nil
}

// VerifyPassword はパスワードがエンコード済みハッシュと一致するかを検証する。
// 比較は一定時間で行われる。ハッシュ形式が不正な場合はエラーを返す。
func VerifyPassword(password, encodedHash string) (bool, error) {
	params, salt, hash, err := decodeHash(encodedHash)
	if err != nil {
		return false, fmt.Errorf("invalid hash format: %w", err)
	}

	candidate := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		uint32(len(hash)),
	)

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}

// decodeHash はPHC形式のハッシュ文字列からパラメータ・ソルト・ハッシュを取り出す。
func decodeHash(encodedHash string) (Params, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Params{}, nil, nil, fmt.Errorf("unsupported hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return Params{}, nil, nil, err
	}
	if version != argon2.Version {
		return Params{}, nil, nil, fmt.Errorf("incompatible argon2 version: %d", version)
	}

	var params Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return Params{}, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, err
	}

	return params, salt, hash, nil
}
