// Package qrcode renders payment links as QR code images so a checkout opened
// on a desktop can be finished on a phone. It wraps github.com/skip2/go-qrcode.
package qrcode
