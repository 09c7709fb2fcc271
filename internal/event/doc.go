// Package event provides the candidate records that flow through the event-scout pipeline.
//
// Each pipeline stage boundary has its own shape: RawCandidate leaves the field extractor,
// NormalizedCandidate leaves the normalizer with a typed Date, ValidatedCandidate carries
// the completeness verdict, and CategorizedCandidate adds exactly one Category. Stages
// convert explicitly between them so no stage can depend on a field an earlier stage
// never promised.
package event
