package abstractheap

import (
	"github.com/go-logr/logr"
	"k8s.io/klog/v2"
)

var log = klog.Background().WithName("abstractheap")

// SetLogger replaces the logger used for diagnostics, including the tree
// dump written before a fatal range lookup.
func SetLogger(l logr.Logger) {
	log = l
}
