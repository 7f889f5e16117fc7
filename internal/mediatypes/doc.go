// Package mediatypes classifies files as RAW, JPEG or other.
//
// Classification trusts a known extension and falls back to sniffing the
// file header for extension-less or misnamed files:
//
//	ft := mediatypes.Classify("/photos/IMG_0001.CR2") // library.FileTypeRaw
//
// RawPriority and JPEGPriority give the fixed preference order used when
// several files in one directory share a base name.
package mediatypes
