package catalog

// Builtin returns the bundled event catalog for the master-data platform.
// Deployments that source events from the server can replace it with their
// own Catalog implementation.
func Builtin() *Static {
	return NewStatic(
		EventDef{
			Value:    "item.created",
			Category: "Items",
			PayloadPaths: []string{
				"item.id", "item.name", "item.categoryId", "item.familyId", "item.typeId",
			},
			HasItemFilters: true,
		},
		EventDef{
			Value:    "item.updated",
			Category: "Items",
			PayloadPaths: []string{
				"item.id", "item.name", "item.categoryId", "item.familyId", "item.typeId",
				"changes",
			},
			HasItemFilters: true,
		},
		EventDef{
			Value:    "item.deleted",
			Category: "Items",
			PayloadPaths: []string{
				"item.id", "item.categoryId", "item.familyId", "item.typeId",
			},
			HasItemFilters: true,
		},
		EventDef{
			Value:    "item.attribute_changed",
			Category: "Items",
			PayloadPaths: []string{
				"item.id", "item.categoryId", "item.familyId", "item.typeId",
				"attribute.key", "attribute.newValue", "attribute.previousValue",
			},
			HasItemFilters:     true,
			HasAttributeFilter: true,
		},
		EventDef{
			Value:    "board.item_added",
			Category: "Boards",
			PayloadPaths: []string{
				"board.id", "board.name", "column.id", "item.id",
			},
			HasItemFilters:  true,
			HasBoardFilters: true,
		},
		EventDef{
			Value:    "board.item_moved",
			Category: "Boards",
			PayloadPaths: []string{
				"board.id", "column.id", "previousColumn.id", "item.id",
			},
			HasItemFilters:  true,
			HasBoardFilters: true,
		},
		EventDef{
			Value:    "user.created",
			Category: "Users",
			PayloadPaths: []string{
				"user.id", "user.email", "user.name",
			},
		},
		EventDef{
			Value:    "user.updated",
			Category: "Users",
			PayloadPaths: []string{
				"user.id", "user.email", "user.name", "changes",
			},
		},
		EventDef{
			Value:    "user.role_assigned",
			Category: "Users",
			PayloadPaths: []string{
				"user.id", "role.id", "role.name",
			},
		},
		EventDef{
			Value:    "notification.sent",
			Category: "Notifications",
			PayloadPaths: []string{
				"notification.id", "notification.channel", "recipient.id",
			},
		},
	)
}
