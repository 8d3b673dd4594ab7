package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c, err := New(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Set("attr:1", "Louvre")
	c.Wait()

	v, ok := c.Get("attr:1")
	if !ok || v.(string) != "Louvre" {
		t.Fatalf("Get = %v, %v", v, ok)
	}

	c.Delete("attr:1")
	c.Wait()
	if _, ok := c.Get("attr:1"); ok {
		t.Fatal("expected miss after Delete")
	}
}
