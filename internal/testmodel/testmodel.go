// Package testmodel provides the library model shared by package tests.
package testmodel

import (
	"github.com/syssam/relmap/schema"
	"github.com/syssam/relmap/schema/field"
	"github.com/syssam/relmap/schema/mixin"
)

// Type names of the library model.
const (
	Person      = "library.Person"
	Author      = "library.Author"
	Tag         = "library.Tag"
	Publication = "library.Publication"
	Book        = "library.Book"
	Ebook       = "library.Ebook"
	Magazine    = "library.Magazine"
	Review      = "library.Review"
)

// Types returns the types of the library model:
//
//	Person (People)                Tag (Tags)
//	└── Author (Authors)
//	Publication (abstract)         Review (Reviews)
//	├── Book (Books)
//	│   └── Ebook (Ebooks)
//	└── Magazine (Magazines)
func Types() []*schema.Type {
	return []*schema.Type{
		{
			Name:  Person,
			Table: "People",
			Fields: []*schema.Field{
				{Name: "Name", Type: field.TypeString},
				{Name: "Born", Type: field.TypeTime},
				{Name: "Aliases", Kind: field.KindElementCollection, Type: field.TypeString},
			},
		},
		{
			Name:  Author,
			Super: Person,
			Table: "Authors",
			Fields: []*schema.Field{
				{Name: "Pseudonym", Type: field.TypeString},
			},
		},
		{
			Name:  Tag,
			Table: "Tags",
			Fields: []*schema.Field{
				{Name: "Name", Type: field.TypeString},
				{Name: "Color", Type: field.TypeString},
				{Name: "Owner", Kind: field.KindObject, Target: Person, Inline: true},
			},
		},
		mixin.Apply(&schema.Type{
			Name:     Publication,
			Table:    "Publications",
			Abstract: true,
			Fields: []*schema.Field{
				{Name: "Title", Type: field.TypeString},
				{Name: "Status", Type: field.TypeEnum},
				{Name: "Price", Type: field.TypeFloat64},
				{Name: "Available", Type: field.TypeBool},
			},
		}, mixin.Secured{}),
		{
			Name:  Book,
			Super: Publication,
			Table: "Books",
			Fields: []*schema.Field{
				{Name: "PublishedYear", Type: field.TypeInt32},
				{Name: "Author", Kind: field.KindObject, Target: Person, Inline: true},
				{Name: "Editor", Kind: field.KindObject, Target: Person},
				{Name: "Tags", Kind: field.KindObjectCollection, Target: Tag},
				{Name: "Keywords", Kind: field.KindElementCollection, Type: field.TypeString},
			},
		},
		{
			Name:  Ebook,
			Super: Book,
			Table: "Ebooks",
			Fields: []*schema.Field{
				{Name: "Format", Type: field.TypeString},
			},
		},
		{
			Name:  Magazine,
			Super: Publication,
			Table: "Magazines",
			Fields: []*schema.Field{
				{Name: "Issue", Type: field.TypeInt32},
				{Name: "Publisher", Kind: field.KindObject, Target: Person, Inline: true},
			},
		},
		{
			Name:  Review,
			Table: "Reviews",
			Fields: []*schema.Field{
				{Name: "Rating", Type: field.TypeInt32},
				{Name: "Subject", Kind: field.KindObject, Target: Publication, Inline: true},
				{Name: "Reviewer", Kind: field.KindObject, Target: Person, Inline: true},
			},
		},
	}
}

// Library returns a snapshot of the library model.
func Library() *schema.Snapshot {
	return schema.MustSnapshot(Types()...)
}
