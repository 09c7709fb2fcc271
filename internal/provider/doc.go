// Package provider defines the external search and extraction capabilities consumed
// by the pipeline, and the adapter boundary that folds the response shapes those
// services return into one canonical Fields record.
package provider
