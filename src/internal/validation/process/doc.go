// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package process orchestrates one validation run over a diagnostic data set.
//
// An [Executor] validates timestamps before signatures. Each token goes through
// the same building blocks: its own integrity and algorithm checks, the chain
// validation of its signing certificate at the validation time, and past
// validation when the present verdict is one a proof of existence may overcome.
// A timestamp that passes proves the existence of every token it covers at its
// production time, so the proofs collected while validating newer timestamps are
// available to older timestamps and to the signatures.
//
// The run ends with a detailed report mirroring the rule execution and a simple
// report holding one verdict and qualification per token.
//
// Example:
//
//	p, err := policy.Load("policy.yaml")
//	if err != nil {
//		return err
//	}
//	data, err := diagnostic.Load("diagnostic.json")
//	if err != nil {
//		return err
//	}
//
//	reports, err := process.New(p, process.WithLogger(log)).Execute(data)
//	if err != nil {
//		return err
//	}
//	fmt.Println(reports.Simple.ValidCount, "of", reports.Simple.TotalCount)
package process
