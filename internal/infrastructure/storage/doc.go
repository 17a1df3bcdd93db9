// Package storage mounts the media that hold the settings document.
//
// A Volume maps a configured medium onto an afero.Fs:
//
//	flash   BasePathFs rooted at storage.flash_root
//	sd      BasePathFs rooted at storage.sd_root
//	memory  MemMapFs, lost on exit
//
// Mounting never creates or formats a root directory. A missing flash
// root is a mount failure that the settings store treats as fatal.
package storage
