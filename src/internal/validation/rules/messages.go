// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rules

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Context is the kind of token a chain is executed for. The same rule may read
// differently depending on whether it runs for a signature, a timestamp, a revocation
// or a bare certificate.
type Context string

const (
	ContextSignature   Context = "signature"
	ContextTimestamp   Context = "timestamp"
	ContextRevocation  Context = "revocation"
	ContextCertificate Context = "certificate"
	// ContextAny registers a message shared by every context.
	ContextAny Context = ""
)

// Contexts lists the concrete validation contexts.
func Contexts() []Context {
	return []Context{ContextSignature, ContextTimestamp, ContextRevocation, ContextCertificate}
}

var builder = catalog.NewBuilder(catalog.Fallback(language.English))

func messageKey(ctx Context, name string) string {
	if ctx == ContextAny {
		return name
	}
	return string(ctx) + "/" + name
}

// RegisterMessages adds English texts for rule names under ctx. It is meant to be
// called from package init functions.
func RegisterMessages(ctx Context, texts map[string]string) {
	for name, text := range texts {
		if err := builder.SetString(language.English, messageKey(ctx, name), text); err != nil {
			panic(err)
		}
	}
}

// Messages resolves rule names to human-readable texts for one context, falling
// back to the context-independent text.
type Messages struct {
	ctx     Context
	printer *message.Printer
}

// MessagesFor returns the message set of ctx.
func MessagesFor(ctx Context) *Messages {
	return &Messages{
		ctx:     ctx,
		printer: message.NewPrinter(language.English, message.Catalog(builder)),
	}
}

// Context returns the context the set resolves for.
func (m *Messages) Context() Context {
	if m == nil {
		return ContextAny
	}
	return m.ctx
}

// Text returns the message of name, or an empty string when none is registered.
func (m *Messages) Text(name string) string {
	if m == nil {
		return ""
	}
	if s := m.printer.Sprintf(message.Key(messageKey(m.ctx, name), "")); s != "" {
		return s
	}
	return m.printer.Sprintf(message.Key(messageKey(ContextAny, name), ""))
}
