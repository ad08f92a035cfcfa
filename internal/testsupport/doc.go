// Package testsupport holds fixtures shared by package tests: temp-dir
// configs, stub executables on PATH, portrait images and an opened run store.
package testsupport
