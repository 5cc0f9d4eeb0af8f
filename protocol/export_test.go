package protocol

// Fragment splits msg into fragments whose frames add up to at most
// maxFragmentSize bytes each (a single oversized frame still gets a fragment
// of its own). It returns msg unchanged if it already fits.
func Fragment(msg *Message, maxFragmentSize int, fragmentID int64) []*Message {
	if msg.Size() <= maxFragmentSize {
		return []*Message{msg}
	}

	var (
		fragments []*Message
		current   *Message
		size      int
	)

	newFragment := func(flags uint16) *Message {
		head := make([]byte, 8)
		byteOrder.PutUint64(head, uint64(fragmentID))

		return &Message{Frames: []Frame{{Content: head, Flags: flags}}}
	}

	current = newFragment(FlagBeginFragment)
	size = current.Size()

	for _, f := range msg.Frames {
		if size+f.Size() > maxFragmentSize && len(current.Frames) > 1 {
			fragments = append(fragments, current)
			current = newFragment(0)
			size = current.Size()
		}

		f.Flags &^= FlagIsFinal
		current.Frames = append(current.Frames, f)
		size += f.Size()
	}

	if len(fragments) == 0 {
		return []*Message{msg}
	}

	current.Frames[0].Flags |= FlagEndFragment
	fragments = append(fragments, current)

	return fragments
}
