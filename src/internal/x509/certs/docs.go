// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509certs decodes [X.509] certificates from [PEM], DER and [PKCS7]
// inputs and converts them into the certificate records of a diagnostic data set.
//
// [ToRecord] identifies each certificate by its SHA-256 fingerprint and maps its
// key and signature algorithms onto the names validation policies use.
//
// [X.509]: https://grokipedia.com/page/X.509
// [PKCS7]: https://grokipedia.com/page/PKCS_7
// [PEM]: https://grokipedia.com/page/PEM#privacy-enhanced-mail
package x509certs
