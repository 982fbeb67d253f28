// Package catalog talks to the catalog service over HTTP.
//
// The circulation workflow only needs two things from the catalog: whether a
// book is currently available, and a way to flip that flag when a loan opens
// or closes. Client implements both against the catalog's JSON endpoints.
package catalog
