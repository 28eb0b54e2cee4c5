/*
 * Copyright 2024-2026 NexusVerse Labs
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package common

import (
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"strings"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var seededRand *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

// PanicIfEmpty panics if the given string is empty
func PanicIfEmpty(val string, msg string) {
	if val == "" {
		panic(msg)
	}
}

// StringOrNil returns the given string or nil when empty
func StringOrNil(str string) *string {
	if str == "" {
		return nil
	}
	return &str
}

// RandomString generates a random string of the given length
func RandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

// SHA256 is a convenience method to return the sha256 hash of the given input
func SHA256(str string) string {
	digest := sha256.New()
	digest.Write([]byte(str))
	return hex.EncodeToString(digest.Sum(nil))
}

// ZeroHash is the canonical "no commitment" value; registrations carrying it
// (or an empty string) are rejected
const ZeroHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

// IsZeroHash returns true if the given commitment is empty or the zero value
func IsZeroHash(hash string) bool {
	if hash == "" || hash == ZeroHash {
		return true
	}
	stripped := strings.TrimPrefix(strings.ToLower(hash), "0x")
	return strings.Trim(stripped, "0") == ""
}

// IsZeroAddress returns true if the given address is empty or the zero address
func IsZeroAddress(addr string) bool {
	if addr == "" {
		return true
	}
	stripped := strings.TrimPrefix(strings.ToLower(addr), "0x")
	return strings.Trim(stripped, "0") == ""
}
